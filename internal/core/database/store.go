package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/config"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/models"
)

var _ core.ChunkStore = (*Store)(nil)

// Store persists embedded chunks into Postgres/pgvector. One run owns
// one connection; there is no cross-document concurrency to pool for.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// BuildDSN assembles a postgres URL from the discrete connection
// settings the environment provides.
func BuildDSN(cfg *config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:   cfg.DBHost + ":" + strconv.Itoa(cfg.DBPort),
		Path:   "/" + cfg.DBName,
	}
	return u.String()
}

// NewStore opens the run's database connection, verifies it, and
// bootstraps the schema when missing.
func NewStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store configuration is nil")
	}
	if cfg.DBHost == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("database host and name are required")
	}

	sqlDB, err := sql.Open("pgx", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Single sequential writer for the run's lifetime.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &Store{
		db:     sqlDB,
		logger: slog.Default().With("component", "store"),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// AlreadyProcessed reports whether any chunk row exists for the
// document. The check is document-level: a document with any stored
// record is never reprocessed.
func (s *Store) AlreadyProcessed(ctx context.Context, documentNumber string) (bool, error) {
	const q = `
		SELECT 1 FROM register_chunks
		WHERE document_number = $1
		LIMIT 1
	`
	var one int
	err := s.db.QueryRowContext(ctx, q, documentNumber).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: dedup check for %s: %v", core.ErrStorage, documentNumber, err)
	}
	return true, nil
}

// SaveChunks inserts each record individually. A failed insert is
// counted and logged with the chunk index, and the remaining records
// still attempt, so one bad row cannot discard a document's other
// chunks. Every row is keyed by a unique chunk id and valid on its own.
func (s *Store) SaveChunks(ctx context.Context, records []models.ChunkRecord) (saved, failed int, err error) {
	const q = `
		INSERT INTO register_chunks
			(id, content, embedding, document_number, chunk_index, token_count,
			 publication_date, title, source_url, agency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var errs []error
	for i := range records {
		r := &records[i]

		var pubDate any
		if r.PublicationDate != "" {
			pubDate = r.PublicationDate
		}

		_, execErr := s.db.ExecContext(ctx, q,
			r.ID, r.Content, pgvector.NewVector(r.Embedding), r.DocumentNumber,
			r.ChunkIndex, r.TokenCount, pubDate, r.Title, r.SourceURL, r.Agency,
		)
		if execErr != nil {
			failed++
			errs = append(errs, fmt.Errorf("chunk %d: %w", r.ChunkIndex, execErr))
			s.logger.Error("chunk insert failed",
				"document", r.DocumentNumber, "chunk", r.ChunkIndex, "err", execErr)
			continue
		}
		saved++
	}

	if len(errs) > 0 {
		return saved, failed, fmt.Errorf("%w: %v", core.ErrStorage, errors.Join(errs...))
	}
	return saved, failed, nil
}
