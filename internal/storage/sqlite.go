//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"spfnn/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveManifest(ctx context.Context, manifest model.Manifest) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeManifest(manifest)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO manifests (model_id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(model_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, manifest.ModelID, manifest.SchemaVersion, manifest.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetManifest(ctx context.Context, modelID string) (model.Manifest, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Manifest{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM manifests WHERE model_id = ?`, modelID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Manifest{}, false, nil
		}
		return model.Manifest{}, false, err
	}

	manifest, err := DecodeManifest(payload)
	if err != nil {
		return model.Manifest{}, false, fmt.Errorf("decode manifest %s: %w", modelID, err)
	}
	return manifest, true, nil
}

func (s *SQLiteStore) ListManifests(ctx context.Context) ([]model.Manifest, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT model_id, payload FROM manifests ORDER BY model_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Manifest
	for rows.Next() {
		var (
			modelID string
			payload []byte
		)
		if err := rows.Scan(&modelID, &payload); err != nil {
			return nil, err
		}
		manifest, err := DecodeManifest(payload)
		if err != nil {
			return nil, fmt.Errorf("decode manifest %s: %w", modelID, err)
		}
		out = append(out, manifest)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveBlob(ctx context.Context, modelID string, index int, blob model.Blob) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO blobs (model_id, slot, name, n_rows, n_cols, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_id, slot) DO UPDATE SET
			name = excluded.name,
			n_rows = excluded.n_rows,
			n_cols = excluded.n_cols,
			payload = excluded.payload
	`, modelID, index, blob.Name, blob.Rows, blob.Cols, EncodeFloats(blob.Values))
	return err
}

func (s *SQLiteStore) GetBlob(ctx context.Context, modelID string, index int) (model.Blob, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Blob{}, false, err
	}

	var (
		blob    model.Blob
		payload []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT name, n_rows, n_cols, payload FROM blobs WHERE model_id = ? AND slot = ?
	`, modelID, index).Scan(&blob.Name, &blob.Rows, &blob.Cols, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Blob{}, false, nil
		}
		return model.Blob{}, false, err
	}

	blob.Values, err = DecodeFloats(payload)
	if err != nil {
		return model.Blob{}, false, fmt.Errorf("decode blob %s/%d: %w", modelID, index, err)
	}
	return blob, true, nil
}

func (s *SQLiteStore) DeleteModel(ctx context.Context, modelID string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blobs WHERE model_id = ?`, modelID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM manifests WHERE model_id = ?`, modelID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS manifests (
			model_id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS blobs (
			model_id TEXT NOT NULL,
			slot INTEGER NOT NULL,
			name TEXT NOT NULL,
			n_rows INTEGER NOT NULL,
			n_cols INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (model_id, slot)
		);
	`)
	return err
}
