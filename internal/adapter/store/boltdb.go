package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"mdindex/internal/domain"
)

var (
	bucketFiles = []byte("files")
	bucketMeta  = []byte("meta")
)

// BoltStore keeps one JSON record per document in a bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database at path and brings its
// schema up to date.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketFiles, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// fileMeta is the stored form of a record. Content is a pointer so records
// written before content was kept can be told apart from empty documents.
type fileMeta struct {
	Path     string  `json:"path"`
	ModTime  float64 `json:"mtime"`
	Keywords string  `json:"keywords"`
	Content  *string `json:"content,omitempty"`
	Language string  `json:"language,omitempty"`
}

func encodeRecord(rec domain.Record) ([]byte, error) {
	meta := fileMeta{
		Path:     rec.Path,
		ModTime:  rec.ModTime,
		Keywords: domain.JoinKeywords(rec.Keywords),
		Language: rec.Language,
	}
	if rec.HasContent {
		content := rec.Content
		meta.Content = &content
	}
	return json.Marshal(meta)
}

func decodeRecord(name string, data []byte) (domain.Record, error) {
	var meta fileMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.Record{}, fmt.Errorf("decode record %s: %w", name, err)
	}
	rec := domain.Record{
		Name:     name,
		Path:     meta.Path,
		ModTime:  meta.ModTime,
		Language: meta.Language,
		Keywords: domain.SplitKeywords(meta.Keywords),
	}
	if meta.Content != nil {
		rec.Content = *meta.Content
		rec.HasContent = true
	}
	return rec, nil
}

func (s *BoltStore) Get(_ context.Context, name string) (domain.Record, bool, error) {
	var (
		rec   domain.Record
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(name))
		if data == nil {
			return nil
		}
		var err error
		rec, err = decodeRecord(name, data)
		found = err == nil
		return err
	})
	return rec, found, err
}

// List returns every record in key order, which is name order.
func (s *BoltStore) List(ctx context.Context) ([]domain.Record, error) {
	var recs []domain.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := decodeRecord(string(k), v)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

func (s *BoltStore) Put(_ context.Context, rec domain.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(rec.Name), data)
	})
}

func (s *BoltStore) Delete(_ context.Context, name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Delete([]byte(name))
	})
}

func (s *BoltStore) DeleteMissing(_ context.Context, observed map[string]struct{}) ([]string, error) {
	var removed []string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFiles)
		var stale [][]byte
		if err := b.ForEach(func(k, _ []byte) error {
			if _, ok := observed[string(k)]; !ok {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed = append(removed, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
