// Package orders persists finalized order records.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/bellybee/checkout/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

var ErrOrderNotFound = errors.New("order not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository struct {
	db *sql.DB
}

type RepoInterface interface {
	SaveOrder(ctx context.Context, userID string, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	Close() error
	RunMigrations(*Credentials) error
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	log.Println("Connected to postgres!")
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
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

func (r *Repository) SaveOrder(ctx context.Context, userID string, order *domain.Order) error {
	query := `INSERT INTO orders (order_id, user_id, method, payment_ref, total, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`

	var ref sql.NullString
	if order.PaymentRef != "" {
		ref = sql.NullString{String: order.PaymentRef, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		order.OrderID,
		userID,
		order.Method.String(),
		ref,
		order.Total,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT order_id, method, payment_ref, total, created_at
              FROM orders WHERE order_id = $1`

	var (
		order  domain.Order
		method string
		ref    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.OrderID, &method, &ref, &order.Total, &order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	order.Method = domain.PaymentMethod(method)
	if ref.Valid {
		order.PaymentRef = ref.String
	}
	return &order, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
