package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mdindex/internal/adapter/mcp"
)

var promptCmd = &cobra.Command{
	Use:   "prompt NAME ARGUMENT",
	Short: "Print one of the MCP prompts for manual use",
	Long: `Render a prompt exactly as MCP clients receive it, to paste into an LLM
session that has no MCP support.

Prompts: ` + strings.Join(mcp.PromptNames(), ", ") + `

Examples:
  mdindex prompt research_topic "container networking"
  mdindex prompt summarize_document kubernetes-basics.md`,
	Args: cobra.ExactArgs(2),
	// Needs neither configuration nor logging.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	text, err := mcp.RenderPrompt(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
