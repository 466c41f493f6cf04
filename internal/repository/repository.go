package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

var (
	ErrMemberNotFound     = errors.New("loyalty member not found")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrLinkNotFound       = errors.New("rating link not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrNoOrdersForCutoff  = errors.New("no completed orders pending a cutoff")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Store is the persistence surface the checkout and rating services depend
// on. All multi-table writes go through WithinTx so they commit or roll back
// as one unit.
type Store interface {
	WithinTx(ctx context.Context, fn func(OrderTx) error) error
	GetMemberByID(ctx context.Context, id int64) (*domain.LoyaltyMember, error)
	GetMemberByEmail(ctx context.Context, email string) (*domain.LoyaltyMember, error)
	CreateMember(ctx context.Context, name, email string) (*domain.LoyaltyMember, error)
	GetRatingLinkByCode(ctx context.Context, code string) (*domain.RatingLink, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	GetMemberRatings(ctx context.Context, orderID, memberID int64) (map[int64]int, error)
	ExpireRatingLink(ctx context.Context, linkID int64) error
}

// OrderTx is the write surface available inside a transaction.
type OrderTx interface {
	InsertOrder(ctx context.Context, order *domain.Order) (int64, error)
	InsertOrderItem(ctx context.Context, item *domain.OrderItem) (int64, error)

	// GetMemberForUpdate locks the member row so concurrent checkouts for the
	// same member serialize instead of losing an award.
	GetMemberForUpdate(ctx context.Context, id int64) (*domain.LoyaltyMember, error)
	UpdateMemberOnPurchase(ctx context.Context, memberID int64, newPoints int, purchase float64, at time.Time) error
	UpdateMemberPoints(ctx context.Context, memberID int64, newPoints int) error
	InsertLoyaltyTransaction(ctx context.Context, t *domain.LoyaltyTransaction) error

	InsertRatingLink(ctx context.Context, link *domain.RatingLink) (int64, error)
	InsertOutboxEvent(ctx context.Context, event *domain.OutboxEvent) error

	GetRatingLinkForUpdate(ctx context.Context, code string) (*domain.RatingLink, error)
	OrderItemProduct(ctx context.Context, orderItemID, orderID int64) (int64, bool, error)
	UpsertProductRating(ctx context.Context, rating *domain.ProductRating) error
	CompleteRatingLink(ctx context.Context, linkID int64, at time.Time) error
	ExpireRatingLink(ctx context.Context, linkID int64) error
}

// OutboxStore is what the poller needs.
type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id uuid.UUID) error
	MarkEmailSent(ctx context.Context, linkID int64) error
}

// AdminStore backs the back-office endpoints.
type AdminStore interface {
	UpdateIngredientStock(ctx context.Context, id int64, newStock float64) (*domain.Ingredient, error)
	ListMembers(ctx context.Context) ([]domain.LoyaltyMember, error)
	ListRatingLinks(ctx context.Context) ([]domain.RatingLink, error)
	RatingSummary(ctx context.Context) ([]domain.ProductRatingSummary, error)
	ListTransactionsByMember(ctx context.Context, memberID int64) ([]domain.LoyaltyTransaction, error)
	CreateCutoff(ctx context.Context) (*domain.SalesCutoff, error)
	ListCutoffs(ctx context.Context) ([]domain.SalesCutoff, error)
}

type Repository struct {
	db *sql.DB
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

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "cafe_schema_migrations",
	})
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

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// WithinTx runs fn inside a single database transaction. Any error from fn
// rolls the whole unit back.
func (r *Repository) WithinTx(ctx context.Context, fn func(OrderTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&orderTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
