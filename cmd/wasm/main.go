//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"
	"time"

	"mdindex/internal/adapter/analyzer"
	"mdindex/internal/adapter/langdetect"
	"mdindex/internal/adapter/memstore"
	"mdindex/internal/adapter/model"
	"mdindex/internal/logging"
	"mdindex/internal/usecase"
)

// pages holds the text handed over by the page, keyed by file name. It
// stands in for the file system the indexer normally reads from.
type pages struct {
	mu   sync.RWMutex
	text map[string]string
}

func (p *pages) ReadFile(name string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	text, ok := p.text[name]
	if !ok {
		return "", fmt.Errorf("%s: not loaded", name)
	}
	return text, nil
}

func (p *pages) set(name, text string) {
	p.mu.Lock()
	p.text[name] = text
	p.mu.Unlock()
}

var (
	store   *memstore.MemoryStore
	files   *pages
	indexer *usecase.IndexUseCase
	queries *usecase.QueryUseCase
	extract *usecase.Extractor
)

func init() {
	registry, err := model.NewRegistry([]string{"en_rules", "de_rules"}, analyzer.NewLoader(), logging.Discard())
	if err != nil {
		panic(err)
	}
	extract = usecase.NewExtractor(registry)
	reset()
}

func reset() {
	store = memstore.NewMemoryStore()
	files = &pages{text: make(map[string]string)}
	indexer = usecase.NewIndexUseCase(store, nil, files, langdetect.NewDetector(logging.Discard()), extract, logging.Discard())
	queries = usecase.NewQueryUseCase(store, files)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("mdIndex", js.FuncOf(indexContent))
	js.Global().Set("mdSearch", js.FuncOf(searchKeywords))
	js.Global().Set("mdFullText", js.FuncOf(fullText))
	js.Global().Set("mdShow", js.FuncOf(showFile))
	js.Global().Set("mdClear", js.FuncOf(clearIndex))
	js.Global().Set("mdStats", js.FuncOf(getStats))

	<-c
}

func indexContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: mdIndex(filename, content)")
	}

	filename := args[0].String()
	files.set(filename, args[1].String())

	mtime := float64(time.Now().UnixNano()) / 1e9
	if _, err := indexer.Update(context.Background(), filename, filename, mtime); err != nil {
		return makeError("indexing failed: " + err.Error())
	}

	rec, _, _ := store.Get(context.Background(), filename)
	return makeResult(map[string]interface{}{
		"success":  true,
		"filename": filename,
		"language": rec.Lang(),
		"keywords": rec.Keywords,
	})
}

func searchKeywords(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: mdSearch([keywords], [lang])")
	}

	var keywords []string
	kw := args[0]
	if kw.Type() == js.TypeString {
		keywords = []string{kw.String()}
	} else {
		for i := 0; i < kw.Length(); i++ {
			keywords = append(keywords, kw.Index(i).String())
		}
	}

	results, err := queries.SearchKeywords(context.Background(), keywords, optionalLang(args, 1))
	if err != nil {
		return makeError("search failed: " + err.Error())
	}
	return makeResult(map[string]interface{}{
		"files": results,
	})
}

func fullText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: mdFullText(query, [lang])")
	}

	query := args[0].String()
	results, err := queries.FullText(context.Background(), query, optionalLang(args, 1))
	if err != nil {
		return makeError("search failed: " + err.Error())
	}
	return makeResult(map[string]interface{}{
		"results": results,
		"query":   query,
	})
}

func showFile(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: mdShow(filename)")
	}

	filename := args[0].String()
	content, err := queries.Fetch(context.Background(), filename)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]interface{}{
		"filename": filename,
		"content":  content,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	reset()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	ctx := context.Background()
	listed, _ := queries.ListFiles(ctx, "")
	counts, _ := queries.KeywordCounts(ctx, "")

	filenames := make([]string, len(listed))
	for i, f := range listed {
		filenames[i] = f.Name
	}

	return makeResult(map[string]interface{}{
		"totalDocs":     len(listed),
		"totalKeywords": len(counts),
		"files":         filenames,
	})
}

func optionalLang(args []js.Value, i int) string {
	if len(args) > i && args[i].Type() == js.TypeString {
		return args[i].String()
	}
	return ""
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
