package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdindex/internal/adapter/fs"
	"mdindex/internal/adapter/memstore"
	"mdindex/internal/adapter/metrics"
	"mdindex/internal/domain"
	"mdindex/internal/port"
)

type fakeWalker struct {
	mu    sync.Mutex
	files []port.FileInfo
	err   error
}

func (w *fakeWalker) Walk(string) ([]port.FileInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]port.FileInfo(nil), w.files...), w.err
}

func (w *fakeWalker) set(files ...port.FileInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = files
}

type fakeReader struct {
	mu       sync.Mutex
	contents map[string]string
	reads    int
}

func (r *fakeReader) ReadFile(path string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	content, ok := r.contents[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return content, nil
}

type fakeDetector struct{}

// Detect treats documents mentioning "und" as German.
func (fakeDetector) Detect(text string) string {
	if strings.Contains(text, " und ") {
		return "de"
	}
	if strings.TrimSpace(text) == "" {
		return domain.UnknownLanguage
	}
	return "en"
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (e *fakeExtractor) Extract(_ context.Context, text, _ string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.fail[text] {
		return nil, errors.New("tagger failed")
	}
	return strings.Fields(strings.ToLower(text)), nil
}

type countingStore struct {
	*memstore.MemoryStore
	puts      int
	deleteErr error
}

func (s *countingStore) DeleteMissing(ctx context.Context, observed map[string]struct{}) ([]string, error) {
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return s.MemoryStore.DeleteMissing(ctx, observed)
}

func (s *countingStore) Put(ctx context.Context, rec domain.Record) error {
	s.puts++
	return s.MemoryStore.Put(ctx, rec)
}

type indexFixture struct {
	store     *countingStore
	walker    *fakeWalker
	reader    *fakeReader
	extractor *fakeExtractor
	uc        *IndexUseCase
}

func newIndexFixture() *indexFixture {
	f := &indexFixture{
		store:     &countingStore{MemoryStore: memstore.NewMemoryStore()},
		walker:    &fakeWalker{},
		reader:    &fakeReader{contents: map[string]string{}},
		extractor: &fakeExtractor{fail: map[string]bool{}},
	}
	f.uc = NewIndexUseCase(f.store, f.walker, f.reader, fakeDetector{}, f.extractor, nil)
	return f
}

func (f *indexFixture) addFile(path, name string, mtime float64, content string) port.FileInfo {
	f.reader.mu.Lock()
	f.reader.contents[path] = content
	f.reader.mu.Unlock()
	return port.FileInfo{Path: path, Name: name, ModTime: mtime}
}

func storedNames(t *testing.T, s port.IndexStore) []string {
	t.Helper()
	recs, err := s.List(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		names = append(names, r.Name)
	}
	return names
}

func TestIndexUseCase_Update_New(t *testing.T) {
	f := newIndexFixture()
	f.addFile("/docs/a.md", "a.md", 10.5, "Docker Linux docker")
	ctx := context.Background()

	outcome, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 10.5)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIndexed, outcome)

	rec, found, err := f.store.Get(ctx, "a.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "/docs/a.md", rec.Path)
	assert.Equal(t, 10.5, rec.ModTime)
	assert.Equal(t, "en", rec.Language)
	assert.Equal(t, []string{"docker", "linux"}, rec.Keywords)
	assert.Equal(t, "Docker Linux docker", rec.Content)
	assert.True(t, rec.HasContent)
}

func TestIndexUseCase_Update_UnchangedDoesNothing(t *testing.T) {
	f := newIndexFixture()
	f.addFile("/docs/a.md", "a.md", 10.5, "alpha")
	ctx := context.Background()

	_, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 10.5)
	require.NoError(t, err)
	reads, calls, puts := f.reader.reads, f.extractor.calls, f.store.puts

	outcome, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 10.5)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, reads, f.reader.reads)
	assert.Equal(t, calls, f.extractor.calls)
	assert.Equal(t, puts, f.store.puts)
}

func TestIndexUseCase_Update_ChangedTimestampReindexes(t *testing.T) {
	f := newIndexFixture()
	f.addFile("/docs/a.md", "a.md", 10.5, "alpha")
	ctx := context.Background()

	_, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 10.5)
	require.NoError(t, err)

	f.reader.contents["/docs/a.md"] = "beta"
	outcome, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 9.0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIndexed, outcome)

	rec, _, err := f.store.Get(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, rec.Keywords)
	assert.Equal(t, 9.0, rec.ModTime)
}

func TestIndexUseCase_Update_SameTimestampMissesEdit(t *testing.T) {
	// timestamps are the only change signal: an edit that keeps the
	// modification time is not picked up
	f := newIndexFixture()
	f.addFile("/docs/a.md", "a.md", 10.5, "alpha")
	ctx := context.Background()

	_, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 10.5)
	require.NoError(t, err)
	f.reader.contents["/docs/a.md"] = "beta"

	outcome, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 10.5)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)

	rec, _, _ := f.store.Get(ctx, "a.md")
	assert.Equal(t, []string{"alpha"}, rec.Keywords)
}

func TestIndexUseCase_Update_FailureKeepsRecord(t *testing.T) {
	f := newIndexFixture()
	f.addFile("/docs/a.md", "a.md", 1, "alpha")
	ctx := context.Background()
	_, err := f.uc.Update(ctx, "/docs/a.md", "a.md", 1)
	require.NoError(t, err)

	f.reader.contents["/docs/a.md"] = "broken"
	f.extractor.fail["broken"] = true
	_, err = f.uc.Update(ctx, "/docs/a.md", "a.md", 2)
	require.Error(t, err)

	delete(f.reader.contents, "/docs/a.md")
	_, err = f.uc.Update(ctx, "/docs/a.md", "a.md", 3)
	assert.ErrorIs(t, err, os.ErrNotExist)

	rec, found, err := f.store.Get(ctx, "a.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(1), rec.ModTime)
	assert.Equal(t, []string{"alpha"}, rec.Keywords)
}

func TestIndexUseCase_Scan(t *testing.T) {
	f := newIndexFixture()
	f.walker.set(
		f.addFile("/docs/a.md", "a.md", 1, "alpha"),
		f.addFile("/docs/sub/b.md", "b.md", 2, "beta"),
		f.addFile("/docs/bad.md", "bad.md", 3, "broken"),
	)
	f.extractor.fail["broken"] = true

	var progress []int
	res, err := f.uc.Scan(context.Background(), "/docs", func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "bad.md", res.Errors[0].Name)
	assert.Equal(t, map[string]struct{}{"a.md": {}, "b.md": {}, "bad.md": {}}, res.Observed)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, []string{"a.md", "b.md"}, storedNames(t, f.store))
}

func TestIndexUseCase_Scan_WalkError(t *testing.T) {
	f := newIndexFixture()
	f.walker.err = os.ErrPermission

	_, err := f.uc.Scan(context.Background(), "/docs", nil)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestIndexUseCase_Cleanup(t *testing.T) {
	f := newIndexFixture()
	ctx := context.Background()
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, f.store.Put(ctx, domain.Record{Name: name}))
	}

	removed, err := f.uc.Cleanup(ctx, map[string]struct{}{"b.md": {}})
	require.NoError(t, err)
	sort.Strings(removed)
	assert.Equal(t, []string{"a.md", "c.md"}, removed)
	assert.Equal(t, []string{"b.md"}, storedNames(t, f.store))
}

func TestIndexUseCase_RunCycle(t *testing.T) {
	f := newIndexFixture()
	ctx := context.Background()
	a := f.addFile("/docs/a.md", "a.md", 1, "alpha")
	b := f.addFile("/docs/b.md", "b.md", 1, "beta")
	f.walker.set(a, b)

	m := metrics.New()
	f.uc.SetMetrics(m)
	changes := 0
	f.uc.OnChange(func() { changes++ })

	res, err := f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.CycleID)
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 1, changes)

	res, err = f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Unchanged)
	assert.False(t, res.Changed())
	assert.Equal(t, 1, changes)

	// rename b.md to c.md
	f.walker.set(a, f.addFile("/docs/c.md", "c.md", 5, "beta"))
	res, err = f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	assert.Equal(t, []string{"b.md"}, res.Deleted)
	assert.Equal(t, 2, changes)
	assert.Equal(t, []string{"a.md", "c.md"}, storedNames(t, f.store))
}

func TestIndexUseCase_RunCycle_FailedDocumentIsNotDeleted(t *testing.T) {
	f := newIndexFixture()
	ctx := context.Background()
	f.walker.set(f.addFile("/docs/a.md", "a.md", 1, "alpha"))
	_, err := f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)

	f.extractor.fail["alpha v2"] = true
	f.walker.set(f.addFile("/docs/a.md", "a.md", 2, "alpha v2"))
	res, err := f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, []string{"a.md"}, storedNames(t, f.store))
}

func TestIndexUseCase_RunCycle_WalkErrorSkipsCleanup(t *testing.T) {
	f := newIndexFixture()
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, domain.Record{Name: "a.md"}))
	f.walker.err = os.ErrNotExist

	_, err := f.uc.RunCycle(ctx, "/docs", nil)
	require.Error(t, err)
	assert.Equal(t, []string{"a.md"}, storedNames(t, f.store))
}

func TestIndexUseCase_RunCycle_IncompleteWalkKeepsRecords(t *testing.T) {
	f := newIndexFixture()
	ctx := context.Background()
	top := f.addFile("/docs/top.md", "top.md", 1, "top")
	nested := f.addFile("/docs/sub/nested.md", "nested.md", 1, "nested")
	f.walker.set(top, nested)
	_, err := f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)

	f.walker.set(top)
	f.walker.err = fmt.Errorf("%w: 1 unreadable entries under /docs", domain.ErrIncompleteWalk)
	res, err := f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)
	assert.True(t, res.Incomplete)
	assert.Equal(t, 1, res.Unchanged)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, []string{"nested.md", "top.md"}, storedNames(t, f.store))

	// once the tree is readable again, vanished documents go
	f.walker.err = nil
	res, err = f.uc.RunCycle(ctx, "/docs", nil)
	require.NoError(t, err)
	assert.False(t, res.Incomplete)
	assert.Equal(t, []string{"nested.md"}, res.Deleted)
}

func TestIndexUseCase_RunCycle_UnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.md"), []byte("top"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.md"), []byte("nested"), 0o644))
	t.Cleanup(func() { os.Chmod(sub, 0o755) })

	st := memstore.NewMemoryStore()
	uc := NewIndexUseCase(st, fs.NewWalker(nil, nil, nil), fs.Reader{}, fakeDetector{}, &fakeExtractor{}, nil)
	ctx := context.Background()

	_, err := uc.RunCycle(ctx, root, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"nested.md", "top.md"}, storedNames(t, st))

	require.NoError(t, os.Chmod(sub, 0o000))
	res, err := uc.RunCycle(ctx, root, nil)
	require.NoError(t, err)
	assert.True(t, res.Incomplete)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, []string{"nested.md", "top.md"}, storedNames(t, st))
}

func TestIndexUseCase_RunCycle_CleanupErrorStillInvalidates(t *testing.T) {
	f := newIndexFixture()
	f.walker.set(f.addFile("/docs/a.md", "a.md", 1, "alpha"))
	f.store.deleteErr = errors.New("disk full")
	changes := 0
	f.uc.OnChange(func() { changes++ })

	_, err := f.uc.RunCycle(context.Background(), "/docs", nil)
	require.Error(t, err)
	assert.Equal(t, 1, changes)
	assert.Equal(t, []string{"a.md"}, storedNames(t, f.store))
}

func TestIndexUseCase_RunCycle_CancelledSkipsCleanup(t *testing.T) {
	f := newIndexFixture()
	require.NoError(t, f.store.Put(context.Background(), domain.Record{Name: "old.md"}))
	f.walker.set(f.addFile("/docs/a.md", "a.md", 1, "alpha"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.uc.RunCycle(ctx, "/docs", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"old.md"}, storedNames(t, f.store))
}

func TestScheduler_Run(t *testing.T) {
	f := newIndexFixture()
	f.walker.set(f.addFile("/docs/a.md", "a.md", 1, "alpha"))

	s := NewScheduler(f.uc, "/docs", time.Hour, nil)
	results := s.Results()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case res := <-results:
		assert.Equal(t, 1, res.Indexed)
	case <-time.After(5 * time.Second):
		t.Fatal("first cycle did not run")
	}

	f.walker.set(f.addFile("/docs/a.md", "a.md", 1, "alpha"), f.addFile("/docs/b.md", "b.md", 1, "beta"))
	s.Trigger()

	select {
	case res := <-results:
		assert.Equal(t, 1, res.Indexed)
		assert.Equal(t, 1, res.Unchanged)
	case <-time.After(5 * time.Second):
		t.Fatal("triggered cycle did not run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_Interval(t *testing.T) {
	f := newIndexFixture()
	s := NewScheduler(f.uc, "/docs", 10*time.Millisecond, nil)
	results := s.Results()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx) //nolint:errcheck

	for i := 0; i < 3; i++ {
		select {
		case <-results:
		case <-time.After(5 * time.Second):
			t.Fatalf("cycle %d did not run", i)
		}
	}
}
