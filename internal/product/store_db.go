package product

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	// DriverName is the database/sql driver registered by pgx's stdlib package.
	DriverName = "pgx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenDB opens a pgx-backed pool and fails fast when the server is not
// reachable within timeout.
func OpenDB(ctx context.Context, url string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = withTimeout(ctx, timeout, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, price, description
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, classifyDBError("list products", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, p Product) (Product, error) {
	if err := checkConstraints(p); err != nil {
		return Product{}, err
	}

	var (
		saved Product
		err   error
	)
	if p.ID == 0 {
		saved, err = s.insert(ctx, p)
	} else {
		saved, err = s.upsert(ctx, p)
	}
	if err != nil {
		return Product{}, classifyDBError("save product", err)
	}
	return saved, nil
}

func (s *PostgresStore) insert(ctx context.Context, p Product) (Product, error) {
	var out Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO products (name, price, description)
			VALUES ($1, $2, $3)
			RETURNING id, name, price, description
		`, p.Name, p.Price, p.Description).Scan(&out.ID, &out.Name, &out.Price, &out.Description)
	})
	return out, err
}

// upsert writes a row with a caller-chosen id. The table lock keeps
// concurrent default inserts from drawing that id from the sequence before it
// has been advanced.
func (s *PostgresStore) upsert(ctx context.Context, p Product) (Product, error) {
	var out Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `LOCK TABLE products IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO products (id, name, price, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    price = EXCLUDED.price,
			    description = EXCLUDED.description
			RETURNING id, name, price, description
		`, p.ID, p.Name, p.Price, p.Description).Scan(&out.ID, &out.Name, &out.Price, &out.Description)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			SELECT setval(pg_get_serial_sequence('products', 'id'), (SELECT MAX(id) FROM products))
		`)
		if err != nil {
			return err
		}

		return tx.Commit()
	})
	return out, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
