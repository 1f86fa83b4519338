package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/jhermesn/slugforge/internal/model"
)

const mysqlDuplicateEntry = 1062

// MySQLStore is the Store implementation backed by the partitioned
// `mappings` table (see internal/store/migrations/bootstrap.sql).
type MySQLStore struct {
	db *sqlx.DB
}

// NewMySQLStore wraps an already-connected sqlx.DB.
func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) Insert(ctx context.Context, m *model.Mapping) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.FirstChar = model.FirstCharOf(m.Slug)

	const query = `
		INSERT INTO mappings (slug, url, owner, created_at, first_char)
		VALUES (:slug, :url, :owner, :created_at, :first_char)`
	_, err := s.db.NamedExecContext(ctx, query, m)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateKey
		}
		return fmt.Errorf("inserting mapping: %w", err)
	}
	return nil
}

func (s *MySQLStore) FindBySlug(ctx context.Context, slug string) (*model.Mapping, error) {
	var m model.Mapping
	const query = `
		SELECT slug, url, owner, created_at, first_char
		FROM mappings
		WHERE first_char = ? AND slug = ?`
	err := s.db.GetContext(ctx, &m, query, model.FirstCharOf(slug), slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding mapping by slug: %w", err)
	}
	return &m, nil
}

// ExistBatch groups candidates by first_char (the partition key) and issues
// one query per partition in parallel, never one round-trip per candidate.
func (s *MySQLStore) ExistBatch(ctx context.Context, slugs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(slugs))
	if len(slugs) == 0 {
		return result, nil
	}

	byPartition := make(map[string][]string)
	for _, slug := range slugs {
		result[slug] = false
		fc := model.FirstCharOf(slug)
		byPartition[fc] = append(byPartition[fc], slug)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for fc, group := range byPartition {
		fc, group := fc, group
		g.Go(func() error {
			existing, err := s.existingInPartition(gctx, fc, group)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, slug := range existing {
				result[slug] = true
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MySQLStore) existingInPartition(ctx context.Context, firstChar string, slugs []string) ([]string, error) {
	query, args, err := sqlx.In(
		`SELECT slug FROM mappings WHERE first_char = ? AND slug IN (?)`,
		firstChar, slugs,
	)
	if err != nil {
		return nil, fmt.Errorf("building existence query: %w", err)
	}
	query = s.db.Rebind(query)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("checking slug existence: %w", err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning existing slug: %w", err)
		}
		existing = append(existing, slug)
	}
	return existing, rows.Err()
}
