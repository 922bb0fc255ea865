package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mdindex/internal/adapter/metrics"
	"mdindex/internal/domain"
	"mdindex/internal/port"
)

// UpdateOutcome is the result of re-indexing one document.
type UpdateOutcome int

const (
	// OutcomeUnchanged means the stored timestamp matched; nothing was read
	// or written.
	OutcomeUnchanged UpdateOutcome = iota
	// OutcomeIndexed means the record was (re)written.
	OutcomeIndexed
)

func (o UpdateOutcome) String() string {
	if o == OutcomeIndexed {
		return "indexed"
	}
	return "unchanged"
}

// IndexUseCase keeps the index store in step with a document directory.
type IndexUseCase struct {
	store     port.IndexStore
	walker    port.FileWalker
	reader    port.FileReader
	detector  port.LanguageDetector
	extractor port.KeywordExtractor
	metrics   *metrics.Metrics
	logger    *slog.Logger
	onChange  []func()
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	store port.IndexStore,
	walker port.FileWalker,
	reader port.FileReader,
	detector port.LanguageDetector,
	extractor port.KeywordExtractor,
	logger *slog.Logger,
) *IndexUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexUseCase{
		store:     store,
		walker:    walker,
		reader:    reader,
		detector:  detector,
		extractor: extractor,
		logger:    logger.With("component", "indexer"),
	}
}

// SetMetrics enables metric recording. A nil value disables it.
func (u *IndexUseCase) SetMetrics(m *metrics.Metrics) {
	u.metrics = m
}

// OnChange registers fn to run after every cycle that modified the store.
// Callbacks run on the scanning goroutine.
func (u *IndexUseCase) OnChange(fn func()) {
	u.onChange = append(u.onChange, fn)
}

// Update re-indexes one document when its timestamp differs from the stored
// one. On any error the stored record is left as it was.
func (u *IndexUseCase) Update(ctx context.Context, path, name string, mtime float64) (UpdateOutcome, error) {
	rec, found, err := u.store.Get(ctx, name)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to look up %s: %w", name, err)
	}
	if found && rec.ModTime == mtime {
		return OutcomeUnchanged, nil
	}

	content, err := u.reader.ReadFile(path)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to read file: %w", err)
	}

	lang := u.detector.Detect(content)
	keywords, err := u.extractor.Extract(ctx, content, lang)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to extract keywords: %w", err)
	}

	err = u.store.Put(ctx, domain.Record{
		Name:       name,
		Path:       path,
		ModTime:    mtime,
		Language:   lang,
		Keywords:   keywords,
		Content:    content,
		HasContent: true,
	})
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to store record: %w", err)
	}

	u.logger.Debug("document indexed", "name", name, "language", lang, "keywords", len(keywords))
	return OutcomeIndexed, nil
}

// DocumentError records a document that could not be processed.
type DocumentError struct {
	Name string
	Path string
	Err  error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e DocumentError) Unwrap() error {
	return e.Err
}

// ScanResult contains the results of a scan.
type ScanResult struct {
	CycleID   string
	Total     int
	Indexed   int
	Unchanged int
	Failed    int
	Deleted   []string
	Errors    []DocumentError
	// Observed holds every walked document name, including failed ones.
	Observed map[string]struct{}
	// Incomplete is set when parts of the tree could not be read. Observed
	// then misses documents that still exist.
	Incomplete bool
	Duration   time.Duration
}

// Changed reports whether the scan wrote or deleted any record.
func (r *ScanResult) Changed() bool {
	return r.Indexed > 0 || len(r.Deleted) > 0
}

// ProgressFunc is called after each document with the number processed so
// far and the total.
type ProgressFunc func(done, total int)

// Scan walks root and updates every document found. Failures of single
// documents are recorded and do not stop the walk. Unreadable parts of the
// tree mark the result Incomplete. An error is returned only when the walk
// itself fails or ctx is cancelled; the observed set is then incomplete and
// must not drive a cleanup.
func (u *IndexUseCase) Scan(ctx context.Context, root string, progress ProgressFunc) (*ScanResult, error) {
	return u.scan(ctx, u.logger, root, progress)
}

func (u *IndexUseCase) scan(ctx context.Context, logger *slog.Logger, root string, progress ProgressFunc) (*ScanResult, error) {
	files, err := u.walker.Walk(root)
	incomplete := errors.Is(err, domain.ErrIncompleteWalk)
	if err != nil && !incomplete {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	if incomplete {
		logger.Warn("directory walk incomplete", "root", root, "error", err)
	}

	result := &ScanResult{
		Total:      len(files),
		Observed:   make(map[string]struct{}, len(files)),
		Incomplete: incomplete,
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Observed[file.Name] = struct{}{}

		outcome, err := u.Update(ctx, file.Path, file.Name, file.ModTime)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			result.Errors = append(result.Errors, DocumentError{Name: file.Name, Path: file.Path, Err: err})
			logger.Warn("document skipped", "path", file.Path, "error", err)
		case outcome == OutcomeIndexed:
			result.Indexed++
			logger.Info("document updated", "name", file.Name)
		default:
			result.Unchanged++
		}

		if progress != nil {
			progress(i+1, len(files))
		}
	}
	return result, nil
}

// Cleanup deletes every stored record whose name is not in observed.
func (u *IndexUseCase) Cleanup(ctx context.Context, observed map[string]struct{}) ([]string, error) {
	removed, err := u.store.DeleteMissing(ctx, observed)
	if err != nil {
		return nil, fmt.Errorf("failed to delete vanished documents: %w", err)
	}
	for _, name := range removed {
		u.logger.Info("document removed", "name", name)
	}
	return removed, nil
}

// RunCycle performs one scan followed by cleanup. Cleanup is skipped when
// the scan did not complete or the walk could not read the whole tree.
func (u *IndexUseCase) RunCycle(ctx context.Context, root string, progress ProgressFunc) (*ScanResult, error) {
	cycleID := uuid.NewString()
	logger := u.logger.With("cycle_id", cycleID)
	start := time.Now()

	result, err := u.scan(ctx, logger, root, progress)
	if err != nil {
		u.metrics.Cycle("error", time.Since(start), 0)
		logger.Error("scan cycle aborted", "root", root, "error", err)
		return nil, err
	}
	result.CycleID = cycleID

	if result.Incomplete {
		logger.Warn("keeping records of unseen documents", "root", root)
	} else {
		result.Deleted, err = u.Cleanup(ctx, result.Observed)
		if err != nil {
			u.metrics.Cycle("error", time.Since(start), 0)
			logger.Error("cleanup failed", "error", err)
			if result.Changed() {
				u.notifyChange()
			}
			return nil, err
		}
	}
	result.Duration = time.Since(start)

	u.metrics.Document(metrics.OutcomeIndexed, result.Indexed)
	u.metrics.Document(metrics.OutcomeUnchanged, result.Unchanged)
	u.metrics.Document(metrics.OutcomeFailed, result.Failed)
	u.metrics.Document(metrics.OutcomeDeleted, len(result.Deleted))
	u.metrics.Cycle("ok", result.Duration, result.Total)

	if result.Changed() {
		u.notifyChange()
	}

	logger.Info("scan cycle complete",
		"root", root,
		"total", result.Total,
		"indexed", result.Indexed,
		"unchanged", result.Unchanged,
		"failed", result.Failed,
		"deleted", len(result.Deleted),
		"duration", result.Duration,
	)
	return result, nil
}

func (u *IndexUseCase) notifyChange() {
	for _, fn := range u.onChange {
		fn()
	}
}
