package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mdindex/internal/adapter/analyzer"
	"mdindex/internal/adapter/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the configured tagging models and which of them load",
	Long: `Load every configured model and report which are available. The first
configured model is the fallback; indexing cannot start without it.

Model names have the form <language>_rules, e.g. en_rules or de_rules.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	out := cmd.OutOrStdout()

	registry, err := model.NewRegistry(cfg.Models.Names, analyzer.NewLoader(), logger)
	if err != nil {
		return err
	}
	warmErr := registry.Warm(cmd.Context())

	loaded := make(map[string]bool)
	for _, name := range registry.Loaded() {
		loaded[name] = true
	}

	for i, name := range registry.Names() {
		status := "not installed"
		if loaded[name] {
			status = "ok"
		}
		role := ""
		if i == 0 {
			role = " (fallback)"
		}
		fmt.Fprintf(out, "%-20s %s%s\n", name, status, role)
	}

	langs := analyzer.SupportedLanguages()
	sort.Strings(langs)
	fmt.Fprintf(out, "\nAvailable languages: %s\n", strings.Join(langs, ", "))

	return warmErr
}
