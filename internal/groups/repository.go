package groups

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GroupRow struct {
	Grupo  string
	Codigo string
}

type OrderRow struct {
	Orden  int
	Codigo string
}

// Repository stores the group membership and article order tables. Both are
// tiny reference tables replaced wholesale by admin uploads.
type Repository interface {
	ListGroupNames(ctx context.Context) ([]string, error)
	FindCodesByGroup(ctx context.Context, group string) ([]string, error)
	ListGroups(ctx context.Context) ([]GroupRow, error)
	ListOrder(ctx context.Context) ([]OrderRow, error)
	ReplaceGroups(ctx context.Context, rows []GroupRow) error
	ReplaceOrder(ctx context.Context, rows []OrderRow) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *pgRepository {
	return &pgRepository{pool: pool}
}

// EnsureSchema creates the reference tables when they do not exist yet.
func (r *pgRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS grupos (
			grupo  TEXT NOT NULL,
			codigo TEXT NOT NULL,
			fecha_actualizacion TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS grupos_grupo_idx ON grupos (grupo);
		CREATE TABLE IF NOT EXISTS orden (
			orden  INTEGER NOT NULL,
			codigo TEXT NOT NULL UNIQUE,
			fecha_actualizacion TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (r *pgRepository) ListGroupNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT grupo FROM grupos ORDER BY grupo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *pgRepository) FindCodesByGroup(ctx context.Context, group string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT codigo FROM grupos WHERE grupo = $1`, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *pgRepository) ListGroups(ctx context.Context) ([]GroupRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT grupo, codigo FROM grupos ORDER BY grupo, codigo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupRow
	for rows.Next() {
		var row GroupRow
		if err := rows.Scan(&row.Grupo, &row.Codigo); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *pgRepository) ListOrder(ctx context.Context) ([]OrderRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT orden, codigo FROM orden ORDER BY orden`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OrderRow
	for rows.Next() {
		var row OrderRow
		if err := rows.Scan(&row.Orden, &row.Codigo); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *pgRepository) ReplaceGroups(ctx context.Context, rows []GroupRow) error {
	return r.replace(ctx, "grupos", func(tx pgx.Tx) error {
		for _, row := range rows {
			if _, err := tx.Exec(ctx,
				`INSERT INTO grupos (grupo, codigo) VALUES ($1, $2)`,
				row.Grupo, row.Codigo,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *pgRepository) ReplaceOrder(ctx context.Context, rows []OrderRow) error {
	return r.replace(ctx, "orden", func(tx pgx.Tx) error {
		for _, row := range rows {
			if _, err := tx.Exec(ctx,
				`INSERT INTO orden (orden, codigo) VALUES ($1, $2)
				 ON CONFLICT (codigo) DO UPDATE SET orden = EXCLUDED.orden, fecha_actualizacion = now()`,
				row.Orden, row.Codigo,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *pgRepository) replace(ctx context.Context, table string, insert func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	return tx.Commit(ctx)
}

// memoryRepository backs the service when postgres is unreachable at startup
// and the tables were seeded from the fallback spreadsheets. Also used in tests.
type memoryRepository struct {
	mu     sync.RWMutex
	groups []GroupRow
	order  []OrderRow
}

func NewMemoryRepository(groups []GroupRow, order []OrderRow) *memoryRepository {
	return &memoryRepository{groups: groups, order: order}
}

func (m *memoryRepository) ListGroupNames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, row := range m.groups {
		if !seen[row.Grupo] {
			seen[row.Grupo] = true
			names = append(names, row.Grupo)
		}
	}
	return names, nil
}

func (m *memoryRepository) FindCodesByGroup(ctx context.Context, group string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var codes []string
	for _, row := range m.groups {
		if row.Grupo == group {
			codes = append(codes, row.Codigo)
		}
	}
	return codes, nil
}

func (m *memoryRepository) ListGroups(ctx context.Context) ([]GroupRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]GroupRow(nil), m.groups...), nil
}

func (m *memoryRepository) ListOrder(ctx context.Context) ([]OrderRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]OrderRow(nil), m.order...), nil
}

func (m *memoryRepository) ReplaceGroups(ctx context.Context, rows []GroupRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append([]GroupRow(nil), rows...)
	return nil
}

func (m *memoryRepository) ReplaceOrder(ctx context.Context, rows []OrderRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append([]OrderRow(nil), rows...)
	return nil
}
