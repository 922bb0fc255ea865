package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mdindex/internal/domain"
)

var (
	queryLang string
	queryJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search KEYWORD...",
	Short: "Find documents carrying any of the keywords",
	Long: `Find documents whose extracted keywords include at least one of the given
keywords. Matching ignores case.

Examples:
  mdindex search docker container
  mdindex search docker --lang de --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var fulltextCmd = &cobra.Command{
	Use:   "fulltext QUERY",
	Short: "Search document content for a piece of text",
	Long: `Search the stored content of every document for QUERY, ignoring case.
Results are ordered by number of matches and show a preview around the
first match.

Examples:
  mdindex fulltext "docker-compose.yml"
  mdindex fulltext "kubectl apply" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFullText,
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List every keyword with its document count",
	Args:  cobra.NoArgs,
	RunE:  runKeywords,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents with their keywords",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print the content of an indexed document",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, fulltextCmd, keywordsCmd, listCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&queryLang, "lang", "l", "", "only documents in this language, e.g. en, de or unknown")
		c.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	}
	rootCmd.AddCommand(showCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := a.queries.SearchKeywords(cmd.Context(), args, queryLang)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printFiles(cmd.OutOrStdout(), files)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := a.queries.ListFiles(cmd.Context(), queryLang)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	return printFiles(cmd.OutOrStdout(), files)
}

func printFiles(w io.Writer, files []domain.FileEntry) error {
	if queryJSON {
		return writeJSON(w, files)
	}
	if len(files) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return nil
	}
	for _, f := range files {
		fmt.Fprintf(w, "%s [%s]\n", f.Name, f.Language)
		if len(f.Keywords) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(f.Keywords, ", "))
		}
	}
	return nil
}

func runKeywords(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.queries.KeywordCounts(cmd.Context(), queryLang)
	if err != nil {
		return fmt.Errorf("keyword listing failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		return writeJSON(out, counts)
	}
	for _, kc := range counts {
		fmt.Fprintf(out, "%-30s %d\n", kc.Keyword, kc.Count)
	}
	return nil
}

func runFullText(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.queries.FullText(cmd.Context(), args[0], queryLang)
	if err != nil {
		return fmt.Errorf("full-text search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		return writeJSON(out, hits)
	}
	if len(hits) == 0 {
		fmt.Fprintln(out, "No matches found.")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(out, "[%d] %s (%d matches)\n", i+1, h.Name, h.Matches)
		fmt.Fprintf(out, "    %s\n", h.Preview)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	content, err := a.queries.Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
