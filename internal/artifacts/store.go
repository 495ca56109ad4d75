package artifacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"vidgen/internal/logging"
	"vidgen/internal/services"
)

// Artifact describes one cached phase output.
type Artifact struct {
	Phase         string    `json:"phase"`
	Fingerprint   string    `json:"fingerprint"`
	PayloadPath   string    `json:"payload_path"`
	SchemaVersion int       `json:"schema_version"`
	SizeBytes     int64     `json:"size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
}

// envelope wraps payloads on disk so reads can verify what they decode.
type envelope struct {
	Phase         string          `json:"phase"`
	Fingerprint   string          `json:"fingerprint"`
	SchemaVersion int             `json:"schema_version"`
	CreatedAt     time.Time       `json:"created_at"`
	Payload       json.RawMessage `json:"payload"`
}

// Store manages artifact persistence under a cache root.
type Store struct {
	root     string
	maxBytes int64
	db       *sql.DB
	logger   *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
    phase          TEXT NOT NULL,
    fingerprint    TEXT NOT NULL,
    payload_path   TEXT NOT NULL,
    schema_version INTEGER NOT NULL,
    size_bytes     INTEGER NOT NULL,
    created_at     TEXT NOT NULL,
    PRIMARY KEY (phase, fingerprint)
);
`

// Open initializes the store under root. maxGiB bounds total payload size for
// pruning; zero disables the budget.
func Open(root string, maxGiB int, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("artifact store: cache root required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, dir := range []string{root, filepath.Join(root, "staging"), filepath.Join(root, "leases")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("artifact store: create %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", filepath.Join(root, "artifacts.db"))
	if err != nil {
		return nil, fmt.Errorf("artifact store: open index: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("artifact store: apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("artifact store: apply schema: %w", err)
	}

	return &Store{
		root:     root,
		maxBytes: int64(maxGiB) * 1024 * 1024 * 1024,
		db:       db,
		logger:   logging.NewComponentLogger(logger, "artifacts"),
	}, nil
}

// Close releases the index database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Root returns the cache root directory.
func (s *Store) Root() string { return s.root }

// Lookup reports whether an artifact exists for (phase, fingerprint).
func (s *Store) Lookup(ctx context.Context, phase, fp string) (Artifact, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT phase, fingerprint, payload_path, schema_version, size_bytes, created_at
         FROM artifacts WHERE phase = ? AND fingerprint = ?`, phase, fp)
	artifact, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("artifact lookup: %w", err)
	}
	return artifact, true, nil
}

// WriteJSON publishes a payload atomically and records it in the index.
// Artifacts are immutable: a second write under the same key is a no-op that
// returns the existing record.
func (s *Store) WriteJSON(ctx context.Context, phase, fp string, schemaVersion int, payload any) (Artifact, error) {
	if existing, found, err := s.Lookup(ctx, phase, fp); err != nil {
		return Artifact{}, err
	} else if found {
		return existing, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact write: encode payload: %w", err)
	}
	now := time.Now().UTC()
	body, err := json.MarshalIndent(envelope{
		Phase:         phase,
		Fingerprint:   fp,
		SchemaVersion: schemaVersion,
		CreatedAt:     now,
		Payload:       raw,
	}, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact write: encode envelope: %w", err)
	}

	finalDir := filepath.Join(s.root, sanitizeName(phase), fp)
	if err := os.MkdirAll(finalDir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("artifact write: create %q: %w", finalDir, err)
	}
	finalPath := filepath.Join(finalDir, "payload.json")
	stagingPath := filepath.Join(s.root, "staging", uuid.NewString()+".json")

	if err := writeAndSync(stagingPath, body); err != nil {
		return Artifact{}, err
	}
	if err := os.Rename(stagingPath, finalPath); err != nil {
		_ = os.Remove(stagingPath)
		return Artifact{}, fmt.Errorf("artifact write: publish: %w", err)
	}

	artifact := Artifact{
		Phase:         phase,
		Fingerprint:   fp,
		PayloadPath:   finalPath,
		SchemaVersion: schemaVersion,
		SizeBytes:     int64(len(body)),
		CreatedAt:     now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO artifacts (phase, fingerprint, payload_path, schema_version, size_bytes, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		artifact.Phase, artifact.Fingerprint, artifact.PayloadPath,
		artifact.SchemaVersion, artifact.SizeBytes, artifact.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact write: index insert: %w", err)
	}

	s.logger.Debug("artifact published",
		logging.String(logging.FieldPhase, phase),
		logging.String(logging.FieldFingerprint, fp),
		logging.Int64("size_bytes", artifact.SizeBytes))
	return artifact, nil
}

// ReadJSON loads and decodes a payload, verifying the stored envelope matches
// the requested key. Unreadable or mismatched artifacts surface
// services.ErrCacheCorruption so callers can degrade to recomputation.
func (s *Store) ReadJSON(ctx context.Context, phase, fp string, schemaVersion int, target any) error {
	artifact, found, err := s.Lookup(ctx, phase, fp)
	if err != nil {
		return err
	}
	if !found {
		return services.Wrap(services.ErrCacheCorruption, "artifacts", "read", "artifact not indexed", nil)
	}

	body, err := os.ReadFile(artifact.PayloadPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrCacheCorruption, "artifacts", "read", "payload missing", err)
		}
		return services.Wrap(services.ErrCacheCorruption, "artifacts", "read", "payload unreadable", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return services.Wrap(services.ErrCacheCorruption, "artifacts", "read", "payload undecodable", err)
	}
	if env.Phase != phase || env.Fingerprint != fp {
		return services.Wrap(services.ErrCacheCorruption, "artifacts", "read",
			fmt.Sprintf("envelope mismatch: stored (%s,%s)", env.Phase, env.Fingerprint), nil)
	}
	if env.SchemaVersion != schemaVersion {
		return services.Wrap(services.ErrCacheCorruption, "artifacts", "read",
			fmt.Sprintf("schema version %d, want %d", env.SchemaVersion, schemaVersion), nil)
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return services.Wrap(services.ErrCacheCorruption, "artifacts", "read", "payload body undecodable", err)
	}
	return nil
}

// Delete removes one artifact and its payload.
func (s *Store) Delete(ctx context.Context, phase, fp string) error {
	artifact, found, err := s.Lookup(ctx, phase, fp)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE phase = ? AND fingerprint = ?`, phase, fp); err != nil {
		return fmt.Errorf("artifact delete: %w", err)
	}
	_ = os.RemoveAll(filepath.Dir(artifact.PayloadPath))
	return nil
}

// List returns all artifacts, newest first.
func (s *Store) List(ctx context.Context) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phase, fingerprint, payload_path, schema_version, size_bytes, created_at
         FROM artifacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("artifact list: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("artifact list: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// Clear removes every artifact and payload.
func (s *Store) Clear(ctx context.Context) error {
	artifacts, err := s.List(ctx)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts`); err != nil {
		return fmt.Errorf("artifact clear: %w", err)
	}
	for _, artifact := range artifacts {
		_ = os.RemoveAll(filepath.Dir(artifact.PayloadPath))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var artifact Artifact
	var createdAt string
	if err := row.Scan(&artifact.Phase, &artifact.Fingerprint, &artifact.PayloadPath,
		&artifact.SchemaVersion, &artifact.SizeBytes, &createdAt); err != nil {
		return Artifact{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Artifact{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	artifact.CreatedAt = parsed
	return artifact, nil
}

func writeAndSync(path string, body []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("artifact write: open staging: %w", err)
	}
	if _, err := file.Write(body); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("artifact write: write staging: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("artifact write: sync staging: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("artifact write: close staging: %w", err)
	}
	return nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}
