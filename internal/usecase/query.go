package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"mdindex/internal/adapter/cache"
	"mdindex/internal/adapter/metrics"
	"mdindex/internal/domain"
	"mdindex/internal/port"
)

// URIScheme prefixes the resource URI of every indexed document.
const URIScheme = "mdfile://"

const (
	minFullTextQuery = 2
	previewContext   = 50
	previewEllipsis  = "..."
)

// Query operation names, used as metric labels and cache key prefixes.
const (
	OpSearch   = "search"
	OpList     = "list"
	OpKeywords = "keywords"
	OpFullText = "fulltext"
	OpFetch    = "fetch"
)

// QueryUseCase answers read-only questions about the index. It never writes
// to the store and sees whatever the last committed scan left behind.
type QueryUseCase struct {
	store   port.IndexStore
	reader  port.FileReader
	cache   *cache.QueryCache
	metrics *metrics.Metrics
}

// NewQueryUseCase creates a new query use case. reader is used by Fetch for
// records stored without content.
func NewQueryUseCase(store port.IndexStore, reader port.FileReader) *QueryUseCase {
	return &QueryUseCase{store: store, reader: reader}
}

// SetCache enables result caching. The cache must be invalidated whenever
// the index changes.
func (u *QueryUseCase) SetCache(c *cache.QueryCache) {
	u.cache = c
}

func (u *QueryUseCase) SetMetrics(m *metrics.Metrics) {
	u.metrics = m
}

// URI returns the resource URI for a document name.
func URI(name string) string {
	return URIScheme + name
}

// NameFromURI is the inverse of URI.
func NameFromURI(uri string) (string, bool) {
	name, ok := strings.CutPrefix(uri, URIScheme)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func cached[T any](u *QueryUseCase, key string, compute func() (T, error)) (T, error) {
	if u.cache == nil {
		return compute()
	}
	v, _, err := cache.GetOrCompute(u.cache, key, compute)
	return v, err
}

// records returns the stored records whose language matches lang. An empty
// lang matches everything; a record without a language counts as unknown.
func (u *QueryUseCase) records(ctx context.Context, lang string) ([]domain.Record, error) {
	recs, err := u.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return recs, nil
	}
	filtered := recs[:0]
	for _, rec := range recs {
		if rec.Lang() == lang {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

func entry(rec domain.Record) domain.FileEntry {
	keywords := rec.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return domain.FileEntry{
		Name:     rec.Name,
		URI:      URI(rec.Name),
		Language: rec.Lang(),
		Keywords: keywords,
	}
}

// SearchKeywords returns every document sharing at least one keyword with
// the query. Matching ignores case and surrounding whitespace. An empty
// query matches nothing.
func (u *QueryUseCase) SearchKeywords(ctx context.Context, keywords []string, lang string) ([]domain.FileEntry, error) {
	defer u.observe(OpSearch, time.Now())

	wanted := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			wanted[kw] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return []domain.FileEntry{}, nil
	}

	terms := make([]string, 0, len(wanted))
	for kw := range wanted {
		terms = append(terms, kw)
	}
	sort.Strings(terms)
	key := OpSearch + "|" + lang + "|" + strings.Join(terms, ",")

	return cached(u, key, func() ([]domain.FileEntry, error) {
		recs, err := u.records(ctx, lang)
		if err != nil {
			return nil, err
		}
		out := []domain.FileEntry{}
		for _, rec := range recs {
			for _, kw := range rec.Keywords {
				if _, ok := wanted[strings.ToLower(kw)]; ok {
					out = append(out, entry(rec))
					break
				}
			}
		}
		return out, nil
	})
}

// ListFiles returns every indexed document with its keywords, ordered by
// name.
func (u *QueryUseCase) ListFiles(ctx context.Context, lang string) ([]domain.FileEntry, error) {
	defer u.observe(OpList, time.Now())

	return cached(u, OpList+"|"+lang, func() ([]domain.FileEntry, error) {
		recs, err := u.records(ctx, lang)
		if err != nil {
			return nil, err
		}
		out := make([]domain.FileEntry, 0, len(recs))
		for _, rec := range recs {
			out = append(out, entry(rec))
		}
		return out, nil
	})
}

// KeywordCounts returns, for every distinct keyword, the number of
// documents carrying it, sorted by keyword.
func (u *QueryUseCase) KeywordCounts(ctx context.Context, lang string) ([]domain.KeywordCount, error) {
	defer u.observe(OpKeywords, time.Now())

	return cached(u, OpKeywords+"|"+lang, func() ([]domain.KeywordCount, error) {
		recs, err := u.records(ctx, lang)
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int)
		for _, rec := range recs {
			seen := make(map[string]struct{}, len(rec.Keywords))
			for _, kw := range rec.Keywords {
				kw = strings.ToLower(strings.TrimSpace(kw))
				if kw == "" {
					continue
				}
				if _, dup := seen[kw]; dup {
					continue
				}
				seen[kw] = struct{}{}
				counts[kw]++
			}
		}
		out := make([]domain.KeywordCount, 0, len(counts))
		for kw, n := range counts {
			out = append(out, domain.KeywordCount{Keyword: kw, Count: n})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
		return out, nil
	})
}

// FullText searches the stored content of every document for query,
// ignoring case. Documents are ranked by the number of non-overlapping
// occurrences; ties keep store order. Queries shorter than two characters
// after trimming return nothing.
func (u *QueryUseCase) FullText(ctx context.Context, query, lang string) ([]domain.SearchHit, error) {
	defer u.observe(OpFullText, time.Now())

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minFullTextQuery {
		return []domain.SearchHit{}, nil
	}

	return cached(u, OpFullText+"|"+lang+"|"+strings.ToLower(query), func() ([]domain.SearchHit, error) {
		recs, err := u.records(ctx, lang)
		if err != nil {
			return nil, err
		}
		needle := foldRunes(query)
		out := []domain.SearchHit{}
		for _, rec := range recs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !rec.HasContent || rec.Content == "" {
				continue
			}
			content := []rune(rec.Content)
			first, n := countMatches(foldRunes(rec.Content), needle)
			if n == 0 {
				continue
			}
			out = append(out, domain.SearchHit{
				Name:    rec.Name,
				Matches: n,
				Preview: preview(content, first, len(needle)),
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Matches > out[j].Matches })
		return out, nil
	})
}

// foldRunes lower-cases s rune by rune so indexes line up with []rune(s).
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

// countMatches returns the rune offset of the first occurrence of needle in
// haystack and the number of non-overlapping occurrences.
func countMatches(haystack, needle []rune) (first, n int) {
	first = -1
	for i := 0; i+len(needle) <= len(haystack); {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			if first < 0 {
				first = i
			}
			n++
			i += len(needle)
			continue
		}
		i++
	}
	return first, n
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// preview cuts a window of previewContext runes around a match and flattens
// line breaks.
func preview(content []rune, at, length int) string {
	start := max(0, at-previewContext)
	end := min(len(content), at+length+previewContext)

	var b strings.Builder
	if start > 0 {
		b.WriteString(previewEllipsis)
	}
	b.WriteString(string(content[start:end]))
	if end < len(content) {
		b.WriteString(previewEllipsis)
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

// Fetch returns the content of the named document. Records stored without
// content are read from their path instead. Missing names and vanished
// files produce a message rather than an error; the error is reserved for
// store failures.
func (u *QueryUseCase) Fetch(ctx context.Context, name string) (string, error) {
	defer u.observe(OpFetch, time.Now())

	if strings.TrimSpace(name) == "" {
		return "Error: no file name given", nil
	}
	rec, ok, err := u.store.Get(ctx, name)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", name, err)
	}
	if !ok {
		return fmt.Sprintf("Error: file '%s' not found", name), nil
	}
	if rec.HasContent {
		return rec.Content, nil
	}
	if rec.Path == "" || u.reader == nil {
		return fmt.Sprintf("Error: file '%s' no longer exists", rec.Path), nil
	}
	content, err := u.reader.ReadFile(rec.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("Error: file '%s' no longer exists", rec.Path), nil
	}
	if err != nil {
		return fmt.Sprintf("Error while reading: %v", err), nil
	}
	return content, nil
}

func (u *QueryUseCase) observe(op string, start time.Time) {
	u.metrics.Query(op, time.Since(start))
}
