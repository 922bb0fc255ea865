package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mdindex/config"
	"mdindex/internal/adapter/analyzer"
	"mdindex/internal/adapter/fs"
	"mdindex/internal/adapter/langdetect"
	"mdindex/internal/adapter/memstore"
	"mdindex/internal/adapter/model"
	"mdindex/internal/usecase"
)

func main() {
	folder := flag.String("folder", "", "Markdown folder to index (default: scan.folder from config)")
	configDir := flag.String("config", ".", "Directory holding mdindex.yaml")
	query := flag.String("q", "", "Full-text query to time")
	keywords := flag.String("k", "", "Comma-separated keywords to time")
	rounds := flag.Int("n", 100, "Query repetitions")
	flag.Parse()

	if *query == "" && *keywords == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -folder ./docs -q \"text\" -k docker,container")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Cold scan cycle (every document read, tagged and stored)")
		fmt.Println("  2. Warm scan cycle (every document unchanged)")
		fmt.Println("  3. Keyword and full-text query latency over the in-memory index")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *folder == "" {
		*folder = cfg.Scan.Folder
	}
	root, err := filepath.Abs(*folder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid folder: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	registry, err := model.NewRegistry(cfg.Models.Names, analyzer.NewLoader(), logger)
	if err == nil {
		err = registry.Warm(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Models not available: %v\n", err)
		os.Exit(1)
	}

	st := memstore.NewMemoryStore()
	indexUC := usecase.NewIndexUseCase(
		st,
		fs.NewWalker(cfg.Scan.Includes, cfg.Scan.Excludes, logger),
		fs.Reader{},
		langdetect.NewDetector(logger),
		usecase.NewExtractor(registry),
		logger,
	)
	queries := usecase.NewQueryUseCase(st, fs.Reader{})

	fmt.Println("MDINDEX BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Folder: %s\n", root)
	fmt.Printf("Models: %s\n", strings.Join(registry.Loaded(), ", "))
	fmt.Println()

	cold, err := indexUC.RunCycle(ctx, root, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}
	warm, err := indexUC.RunCycle(ctx, root, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SCAN CYCLES")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("  Cold: %d documents, %d indexed, %d failed in %s", cold.Total, cold.Indexed, cold.Failed, cold.Duration)
	if cold.Indexed > 0 {
		fmt.Printf(" (%s/doc)", cold.Duration/time.Duration(cold.Indexed))
	}
	fmt.Println()
	fmt.Printf("  Warm: %d unchanged in %s\n\n", warm.Unchanged, warm.Duration)

	counts, _ := queries.KeywordCounts(ctx, "")
	fmt.Printf("Distinct keywords: %d\n", len(counts))
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	for i, kc := range counts {
		if i == 5 {
			break
		}
		fmt.Printf("  %-30s %d\n", kc.Keyword, kc.Count)
	}
	fmt.Println()

	fmt.Println("QUERY LATENCY")
	fmt.Println(strings.Repeat("-", 70))

	if *keywords != "" {
		terms := strings.Split(*keywords, ",")
		var found int
		elapsed := timeRounds(*rounds, func() {
			files, _ := queries.SearchKeywords(ctx, terms, "")
			found = len(files)
		})
		fmt.Printf("  Keywords %v: %d documents, %s/query\n", terms, found, elapsed)
	}

	if *query != "" {
		var hits int
		elapsed := timeRounds(*rounds, func() {
			results, _ := queries.FullText(ctx, *query, "")
			hits = len(results)
		})
		fmt.Printf("  Full text %q: %d documents, %s/query\n", *query, hits, elapsed)

		results, _ := queries.FullText(ctx, *query, "")
		for i, r := range results {
			if i == 3 {
				break
			}
			fmt.Printf("    %d. %s (%d matches) %s\n", i+1, r.Name, r.Matches, r.Preview)
		}
	}
}

func timeRounds(n int, fn func()) time.Duration {
	if n < 1 {
		n = 1
	}
	start := time.Now()
	for i := 0; i < n; i++ {
		fn()
	}
	return time.Since(start) / time.Duration(n)
}
