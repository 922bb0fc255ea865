package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"mdindex/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when changing the stored record format.
//
//	v1: path, mtime, keywords
//	v2: + content
//	v3: + language
const CurrentSchemaVersion = 3

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the stored schema version, 0 for a fresh database.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &version); err != nil {
			version = 1
		}
		return nil
	})
	return version, err
}

func (s *BoltStore) setSchemaVersion(tx *bbolt.Tx, version int) error {
	data, err := json.Marshal(version)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration reports whether Migrate has work to do. A database written
// by a newer version is an error: its records may not decode.
func (s *BoltStore) CheckMigration() (*MigrationResult, error) {
	version, err := s.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	result := &MigrationResult{OldVersion: version, NewVersion: CurrentSchemaVersion}
	switch {
	case version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	case version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", version, CurrentSchemaVersion)
	case version > CurrentSchemaVersion:
		return nil, fmt.Errorf("database created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}
	return result, nil
}

// Migrate upgrades the stored records one version at a time. Every step is
// additive: existing fields are never dropped or rewritten.
func (s *BoltStore) Migrate() error {
	result, err := s.CheckMigration()
	if err != nil {
		return err
	}
	if !result.NeedsMigration {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for v := result.OldVersion; v < CurrentSchemaVersion; v++ {
			if err := runMigration(tx, v, v+1); err != nil {
				return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
			}
		}
		return s.setSchemaVersion(tx, CurrentSchemaVersion)
	})
}

func runMigration(tx *bbolt.Tx, from, to int) error {
	switch {
	case from == 0 && to == 1:
		return nil
	case from == 1 && to == 2:
		// content is optional in the record; older records decode without it
		return nil
	case from == 2 && to == 3:
		return backfillLanguage(tx)
	default:
		return nil
	}
}

// backfillLanguage marks records that predate language detection as
// unknown.
func backfillLanguage(tx *bbolt.Tx) error {
	b := tx.Bucket(bucketFiles)
	updates := make(map[string][]byte)
	err := b.ForEach(func(k, v []byte) error {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(v, &raw); err != nil {
			return fmt.Errorf("decode record %s: %w", k, err)
		}
		if _, ok := raw["language"]; ok {
			return nil
		}
		lang, err := json.Marshal(domain.UnknownLanguage)
		if err != nil {
			return err
		}
		raw["language"] = lang
		data, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		updates[string(k)] = data
		return nil
	})
	if err != nil {
		return err
	}
	for k, data := range updates {
		if err := b.Put([]byte(k), data); err != nil {
			return err
		}
	}
	return nil
}
