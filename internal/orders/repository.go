// Package orders persists submitted orders locally so the storefront's order
// tracking pages work without refetching the whole history. Rows double as an
// outbox: the events poller publishes unpublished rows and marks them.
package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository struct {
	db *sql.DB
}

type RepoInterface interface {
	SaveOrder(ctx context.Context, order *domain.Order) error
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetUnpublishedOrders(ctx context.Context, limit int) ([]*OutboxEntry, error)
	MarkOrderPublished(ctx context.Context, id string) error
	Close() error
	RunMigrations(string) error
}

// OutboxEntry is an order row pending publication.
type OutboxEntry struct {
	ID      string
	Payload []byte
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) SaveOrder(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	query := `
		INSERT INTO orders (id, order_number, status, total, currency, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		string(order.Status),
		order.Pricing.Total,
		order.Currency,
		payload,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT payload
		FROM orders
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order := &domain.Order{}
		if err := json.Unmarshal(payload, order); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT payload
		FROM orders
		WHERE id = $1
	`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	order := &domain.Order{}
	if err := json.Unmarshal(payload, order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return order, nil
}

func (r *Repository) GetUnpublishedOrders(ctx context.Context, limit int) ([]*OutboxEntry, error) {
	query := `
		SELECT id, payload
		FROM orders
		WHERE published = 0
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished orders: %w", err)
	}
	defer rows.Close()

	var entries []*OutboxEntry
	for rows.Next() {
		e := &OutboxEntry{}
		if err := rows.Scan(&e.ID, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

func (r *Repository) MarkOrderPublished(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET published = 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark order published: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
