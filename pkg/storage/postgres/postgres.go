// Package postgres provides a PostgreSQL implementation of the storage
// contract using pgx/v5 connection pooling. Entity mapping is declared
// with a Schema: table name, column list, and scan/value functions.
// SaveChanges commits all pending mutations in a single transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cmayhew/weft/pkg/storage"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	DSN             string
	MaxConns        int32         // default: 10
	MinConns        int32         // default: 0
	MaxConnLifetime time.Duration // default: 1 hour
}

// defaults fills in zero-value fields.
func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
}

// Connect creates a connection pool and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// Migrate applies a DDL script.
func Migrate(ctx context.Context, pool *pgxpool.Pool, ddl string) error {
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("running migration: %w", err)
	}
	return nil
}

// Querier is the read surface handed to Enrich functions. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema declares the entity mapping for one table.
type Schema[T any] struct {
	// Table is the table name.
	Table string

	// Columns lists the mapped columns; the id column comes first.
	Columns []string

	// Values extracts the column values from an entity, aligned with
	// Columns.
	Values func(e T) []any

	// Scan reads one row, in Columns order, into an entity.
	Scan func(row pgx.Row) (T, error)

	// ID extracts the entity id.
	ID func(e T) int64

	// Enrich resolves related entities via the declared foreign keys.
	// Optional; GetAllWithRelated falls back to GetAll when nil.
	Enrich func(ctx context.Context, q Querier, e T) (T, error)
}

// Store is a PostgreSQL-backed change-tracking store for one entity type.
type Store[T any] struct {
	pool   *pgxpool.Pool
	schema Schema[T]

	selectByID string
	selectAll  string
	insert     string
	update     string
	delete     string

	mu      sync.Mutex
	pending []storage.Mutation[T]
}

// Compile-time check against the storage contract.
var _ storage.Store[struct{}] = (*Store[struct{}])(nil)

// NewStore creates a store over an existing pool. The SQL statements
// are derived from the schema once, at construction.
func NewStore[T any](pool *pgxpool.Pool, schema Schema[T]) *Store[T] {
	cols := strings.Join(schema.Columns, ", ")
	idCol := schema.Columns[0]

	placeholders := make([]string, len(schema.Columns))
	sets := make([]string, 0, len(schema.Columns)-1)
	for i, col := range schema.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if i > 0 {
			sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		}
	}

	return &Store[T]{
		pool:   pool,
		schema: schema,
		selectByID: fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
			cols, schema.Table, idCol),
		selectAll: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
			cols, schema.Table, idCol),
		insert: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			schema.Table, cols, strings.Join(placeholders, ", ")),
		update: fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1",
			schema.Table, strings.Join(sets, ", "), idCol),
		delete: fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
			schema.Table, idCol),
	}
}

// GetByID returns the entity with the given id.
func (s *Store[T]) GetByID(ctx context.Context, id int64) (T, error) {
	e, err := s.schema.Scan(s.pool.QueryRow(ctx, s.selectByID, id))
	if err != nil {
		var zero T
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, storage.ErrNotFound
		}
		return zero, fmt.Errorf("querying %s by id: %w", s.schema.Table, err)
	}
	return e, nil
}

// GetAll returns all entities ordered by id.
func (s *Store[T]) GetAll(ctx context.Context) ([]T, error) {
	rows, err := s.pool.Query(ctx, s.selectAll)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.schema.Table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		e, err := s.schema.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.schema.Table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", s.schema.Table, err)
	}
	return out, nil
}

// GetAllWithRelated returns all entities with related entities
// resolved through the schema's Enrich function.
func (s *Store[T]) GetAllWithRelated(ctx context.Context) ([]T, error) {
	all, err := s.GetAll(ctx)
	if err != nil || s.schema.Enrich == nil {
		return all, err
	}

	for i, e := range all {
		enriched, err := s.schema.Enrich(ctx, s.pool, e)
		if err != nil {
			return nil, fmt.Errorf("enriching %s %d: %w", s.schema.Table, s.schema.ID(e), err)
		}
		all[i] = enriched
	}
	return all, nil
}

// Add queues an insert.
func (s *Store[T]) Add(e T) {
	s.queue(storage.Mutation[T]{Op: storage.OpAdd, Entity: e})
}

// Update queues an update.
func (s *Store[T]) Update(e T) {
	s.queue(storage.Mutation[T]{Op: storage.OpUpdate, Entity: e})
}

// Delete queues a removal.
func (s *Store[T]) Delete(e T) {
	s.queue(storage.Mutation[T]{Op: storage.OpDelete, Entity: e})
}

func (s *Store[T]) queue(m storage.Mutation[T]) {
	s.mu.Lock()
	s.pending = append(s.pending, m)
	s.mu.Unlock()
}

// SaveChanges commits all pending mutations in one transaction. Any
// failure rolls the whole batch back; the pending queue is cleared
// either way.
func (s *Store[T]) SaveChanges(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range pending {
		if err := s.apply(ctx, tx, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing changes: %w", err)
	}
	return nil
}

// apply executes one mutation inside the transaction.
func (s *Store[T]) apply(ctx context.Context, tx pgx.Tx, m storage.Mutation[T]) error {
	id := s.schema.ID(m.Entity)

	switch m.Op {
	case storage.OpAdd:
		_, err := tx.Exec(ctx, s.insert, s.schema.Values(m.Entity)...)
		if err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("adding %s %d: %w", s.schema.Table, id, storage.ErrConflict)
			}
			return fmt.Errorf("adding %s %d: %w", s.schema.Table, id, err)
		}

	case storage.OpUpdate:
		tag, err := tx.Exec(ctx, s.update, s.schema.Values(m.Entity)...)
		if err != nil {
			return fmt.Errorf("updating %s %d: %w", s.schema.Table, id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("updating %s %d: %w", s.schema.Table, id, storage.ErrNotFound)
		}

	case storage.OpDelete:
		tag, err := tx.Exec(ctx, s.delete, id)
		if err != nil {
			return fmt.Errorf("deleting %s %d: %w", s.schema.Table, id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("deleting %s %d: %w", s.schema.Table, id, storage.ErrNotFound)
		}
	}
	return nil
}

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
