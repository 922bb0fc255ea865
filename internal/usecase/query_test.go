package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdindex/internal/adapter/cache"
	"mdindex/internal/adapter/memstore"
	"mdindex/internal/adapter/metrics"
	"mdindex/internal/domain"
)

func newQueryFixture(t *testing.T, recs ...domain.Record) (*QueryUseCase, *memstore.MemoryStore, *fakeReader) {
	t.Helper()
	store := memstore.NewMemoryStore()
	for _, rec := range recs {
		require.NoError(t, store.Put(context.Background(), rec))
	}
	reader := &fakeReader{contents: map[string]string{}}
	return NewQueryUseCase(store, reader), store, reader
}

func doc(name, lang string, keywords ...string) domain.Record {
	return domain.Record{
		Name:       name,
		Path:       "/docs/" + name,
		Language:   lang,
		Keywords:   keywords,
		Content:    "content of " + name,
		HasContent: true,
	}
}

func names(entries []domain.FileEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func sampleDocs() []domain.Record {
	return []domain.Record{
		doc("doc1", "en", "docker", "container"),
		doc("doc2", "en", "python"),
		doc("doc3", "de", "docker", "linux"),
	}
}

func TestQueryUseCase_EndToEnd(t *testing.T) {
	q, _, _ := newQueryFixture(t, sampleDocs()...)
	ctx := context.Background()

	hits, err := q.SearchKeywords(ctx, []string{"docker"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1", "doc3"}, names(hits))

	hits, err = q.SearchKeywords(ctx, []string{"docker"}, "de")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc3"}, names(hits))

	counts, err := q.KeywordCounts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.KeywordCount{
		{Keyword: "container", Count: 1},
		{Keyword: "docker", Count: 2},
		{Keyword: "linux", Count: 1},
		{Keyword: "python", Count: 1},
	}, counts)
}

func TestQueryUseCase_SearchKeywords(t *testing.T) {
	q, _, _ := newQueryFixture(t, sampleDocs()...)
	ctx := context.Background()

	tests := []struct {
		name     string
		keywords []string
		lang     string
		want     []string
	}{
		{"empty query", nil, "", []string{}},
		{"blank terms", []string{" ", ""}, "", []string{}},
		{"or semantics", []string{"python", "linux"}, "", []string{"doc2", "doc3"}},
		{"case and whitespace", []string{"  DOCKER "}, "", []string{"doc1", "doc3"}},
		{"no match", []string{"kubernetes"}, "", []string{}},
		{"language filter", []string{"docker", "python"}, "en", []string{"doc1", "doc2"}},
		{"filter case", []string{"docker"}, "DE", []string{"doc3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.SearchKeywords(ctx, tt.keywords, tt.lang)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestQueryUseCase_SearchKeywords_Entry(t *testing.T) {
	q, _, _ := newQueryFixture(t, doc("notes.md", "", "docker"))

	got, err := q.SearchKeywords(context.Background(), []string{"docker"}, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.FileEntry{
		Name:     "notes.md",
		URI:      "mdfile://notes.md",
		Language: domain.UnknownLanguage,
		Keywords: []string{"docker"},
	}, got[0])
}

func TestQueryUseCase_UnknownLanguageFilter(t *testing.T) {
	q, _, _ := newQueryFixture(t,
		doc("legacy.md", "", "docker"),
		doc("new.md", domain.UnknownLanguage, "docker"),
		doc("en.md", "en", "docker"),
	)

	got, err := q.ListFiles(context.Background(), domain.UnknownLanguage)
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy.md", "new.md"}, names(got))
}

func TestQueryUseCase_ListFiles(t *testing.T) {
	q, _, _ := newQueryFixture(t, append(sampleDocs(), doc("empty.md", "en"))...)
	ctx := context.Background()

	all, err := q.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1", "doc2", "doc3", "empty.md"}, names(all))
	assert.Equal(t, []string{}, all[3].Keywords)

	de, err := q.ListFiles(ctx, "de")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc3"}, names(de))

	none, err := q.ListFiles(ctx, "fr")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQueryUseCase_KeywordCounts_Filtered(t *testing.T) {
	q, _, _ := newQueryFixture(t, sampleDocs()...)

	counts, err := q.KeywordCounts(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, []domain.KeywordCount{
		{Keyword: "container", Count: 1},
		{Keyword: "docker", Count: 1},
		{Keyword: "python", Count: 1},
	}, counts)
}

func TestQueryUseCase_FullText(t *testing.T) {
	recs := []domain.Record{
		{Name: "a.md", Content: "Docker docker DOCKER", HasContent: true},
		{Name: "b.md", Content: "one docker here", HasContent: true},
		{Name: "c.md", Content: "nothing relevant", HasContent: true},
		{Name: "d.md", Path: "/gone/d.md"},
		{Name: "e.md", Content: "also a docker", HasContent: true},
	}
	q, _, _ := newQueryFixture(t, recs...)

	got, err := q.FullText(context.Background(), " docker ", "")
	require.NoError(t, err)
	assert.Equal(t, []domain.SearchHit{
		{Name: "a.md", Matches: 3, Preview: "Docker docker DOCKER"},
		{Name: "b.md", Matches: 1, Preview: "one docker here"},
		{Name: "e.md", Matches: 1, Preview: "also a docker"},
	}, got)
}

func TestQueryUseCase_FullText_ShortQuery(t *testing.T) {
	q, _, _ := newQueryFixture(t, domain.Record{Name: "a.md", Content: "a b c", HasContent: true})

	for _, query := range []string{"", " ", "a", "  b  "} {
		got, err := q.FullText(context.Background(), query, "")
		require.NoError(t, err)
		assert.Empty(t, got, "query %q", query)
	}
}

func TestQueryUseCase_FullText_NonOverlapping(t *testing.T) {
	q, _, _ := newQueryFixture(t, domain.Record{Name: "a.md", Content: "aaaa", HasContent: true})

	got, err := q.FullText(context.Background(), "aa", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Matches)
}

func TestQueryUseCase_FullText_Preview(t *testing.T) {
	before := strings.Repeat("x", 60)
	after := strings.Repeat("y", 60)
	content := before + "\nNeedle\n" + after
	q, _, _ := newQueryFixture(t, domain.Record{Name: "a.md", Content: content, HasContent: true})

	got, err := q.FullText(context.Background(), "needle", "")
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := "..." + strings.Repeat("x", 49) + " Needle " + strings.Repeat("y", 49) + "..."
	assert.Equal(t, want, got[0].Preview)
}

func TestQueryUseCase_FullText_PreviewCountsRunes(t *testing.T) {
	content := strings.Repeat("ü", 55) + "Straße" + strings.Repeat("ö", 10)
	q, _, _ := newQueryFixture(t, domain.Record{Name: "a.md", Content: content, HasContent: true})

	got, err := q.FullText(context.Background(), "STRASSE", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = q.FullText(context.Background(), "straße", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "..."+strings.Repeat("ü", 50)+"Straße"+strings.Repeat("ö", 10), got[0].Preview)
}

func TestQueryUseCase_Fetch(t *testing.T) {
	q, store, reader := newQueryFixture(t, doc("stored.md", "en"))
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, domain.Record{Name: "legacy.md", Path: "/docs/legacy.md"}))
	require.NoError(t, store.Put(ctx, domain.Record{Name: "gone.md", Path: "/docs/gone.md"}))
	require.NoError(t, store.Put(ctx, domain.Record{Name: "empty.md", Path: "/docs/empty.md", HasContent: true}))
	reader.contents["/docs/legacy.md"] = "# Legacy"
	reader.contents["/docs/stored.md"] = "changed on disk"

	tests := []struct {
		name string
		want string
	}{
		{"stored.md", "content of stored.md"},
		{"legacy.md", "# Legacy"},
		{"gone.md", "Error: file '/docs/gone.md' no longer exists"},
		{"missing.md", "Error: file 'missing.md' not found"},
		{"", "Error: no file name given"},
		{"empty.md", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.Fetch(ctx, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type failingReader struct{}

func (failingReader) ReadFile(string) (string, error) {
	return "", errors.New("permission denied")
}

func TestQueryUseCase_Fetch_ReadError(t *testing.T) {
	store := memstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), domain.Record{Name: "a.md", Path: "/docs/a.md"}))
	q := NewQueryUseCase(store, failingReader{})

	got, err := q.Fetch(context.Background(), "a.md")
	require.NoError(t, err)
	assert.Equal(t, "Error while reading: permission denied", got)
}

func TestQueryUseCase_CacheInvalidation(t *testing.T) {
	q, store, _ := newQueryFixture(t, sampleDocs()...)
	c := cache.NewQueryCache(16, time.Minute)
	q.SetCache(c)
	ctx := context.Background()

	first, err := q.ListFiles(ctx, "")
	require.NoError(t, err)
	require.Len(t, first, 3)

	require.NoError(t, store.Put(ctx, doc("doc4", "en", "rust")))
	stale, err := q.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, stale, 3)

	c.Invalidate()
	fresh, err := q.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1", "doc2", "doc3", "doc4"}, names(fresh))
}

func TestQueryUseCase_Metrics(t *testing.T) {
	q, _, _ := newQueryFixture(t, sampleDocs()...)
	m := metrics.New()
	q.SetMetrics(m)
	ctx := context.Background()

	_, err := q.SearchKeywords(ctx, []string{"docker"}, "")
	require.NoError(t, err)
	_, err = q.Fetch(ctx, "doc1")
	require.NoError(t, err)
	_, err = q.Fetch(ctx, "doc2")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OpSearch)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OpFetch)))
}

func TestQueryUseCase_ConcurrentWithWrites(t *testing.T) {
	q, store, _ := newQueryFixture(t, sampleDocs()...)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = store.Put(ctx, doc("doc1", "en", "docker", "container"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			hits, err := q.SearchKeywords(ctx, []string{"docker"}, "")
			assert.NoError(t, err)
			assert.Len(t, hits, 2)
		}
	}()
	wg.Wait()
}

func TestURI(t *testing.T) {
	assert.Equal(t, "mdfile://a b.md", URI("a b.md"))

	name, ok := NameFromURI("mdfile://notes.md")
	assert.True(t, ok)
	assert.Equal(t, "notes.md", name)

	_, ok = NameFromURI("file://notes.md")
	assert.False(t, ok)
	_, ok = NameFromURI("mdfile://")
	assert.False(t, ok)
}
