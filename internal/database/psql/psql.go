package psql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	databaseerrors "shopcarts/internal/database"
	"shopcarts/internal/models"
	"shopcarts/pkg/lib/logger/sl"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `shopcart_id, product_id, quantity, price, time_added, checkout`

type Storage struct {
	log *slog.Logger
	db  *sqlx.DB
}

// New connects with the given database/sql driver ("postgres" or "pgx") and migrates the schema.
func New(ctx context.Context, log *slog.Logger, driver, connStr string) (*Storage, error) {
	const op = "database.psql.New"

	db, err := sqlx.ConnectContext(ctx, driver, connStr)
	if err != nil {
		log.With("op", op).Error("Error connect to database", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{
		log: log,
		db:  db,
	}

	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func NewWithParams(log *slog.Logger, db *sqlx.DB) *Storage {
	return &Storage{
		log: log,
		db:  db,
	}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	const op = "database.psql.Ping"

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, item models.ShopcartItem) (models.ShopcartItem, error) {
	const op = "database.psql.Create"
	log := s.log.With("op", op, "shopcart_id", item.ShopcartId, "product_id", item.ProductId)

	if err := contextErr(ctx); err != nil {
		log.Error("Context is over", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	var created models.ShopcartItem
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO shopcart_items (shopcart_id, product_id, quantity, price, time_added, checkout)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+itemColumns+`;
	`, item.ShopcartId, item.ProductId, item.Quantity, item.Price, item.TimeAdded, item.Checkout).StructScan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("Shopcart item already exists", sl.Err(databaseerrors.ErrAlreadyExists))
			return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrAlreadyExists)
		}

		log.Error("Failed to insert shopcart item", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, writeOutcome(err))
	}

	return created, nil
}

// Update locks the row of key, applies fn to it and stores the result in one transaction.
// The composite key cannot be changed by fn.
func (s *Storage) Update(
	ctx context.Context,
	key models.ItemKey,
	fn func(item *models.ShopcartItem) error,
) (models.ShopcartItem, error) {
	const op = "database.psql.Update"
	log := s.log.With("op", op, "shopcart_id", key.ShopcartId, "product_id", key.ProductId)

	if err := contextErr(ctx); err != nil {
		log.Error("Context is over", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error("Failed to begin transaction", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var item models.ShopcartItem
	if err := tx.GetContext(ctx, &item, `
		SELECT `+itemColumns+` FROM shopcart_items
		WHERE shopcart_id=$1 AND product_id=$2
		FOR UPDATE;
	`, key.ShopcartId, key.ProductId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Shopcart item doesn't exist", sl.Err(databaseerrors.ErrNotFound))
			return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}

		log.Error("Failed to lock shopcart item", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := fn(&item); err != nil {
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	var updated models.ShopcartItem
	if err := tx.QueryRowxContext(ctx, `
		UPDATE shopcart_items
		SET quantity=$3, price=$4, time_added=$5, checkout=$6
		WHERE shopcart_id=$1 AND product_id=$2
		RETURNING `+itemColumns+`;
	`, key.ShopcartId, key.ProductId, item.Quantity, item.Price, item.TimeAdded, item.Checkout).StructScan(&updated); err != nil {
		log.Error("Failed to update shopcart item", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, writeOutcome(err))
	}

	return updated, nil
}

func (s *Storage) Delete(ctx context.Context, key models.ItemKey) error {
	const op = "database.psql.Delete"
	log := s.log.With("op", op, "shopcart_id", key.ShopcartId, "product_id", key.ProductId)

	if err := contextErr(ctx); err != nil {
		log.Error("Context is over", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM shopcart_items
		WHERE shopcart_id=$1 AND product_id=$2;
	`, key.ShopcartId, key.ProductId); err != nil {
		log.Error("Failed to delete shopcart item", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteByShopcartId(ctx context.Context, shopcartId int) (int64, error) {
	const op = "database.psql.DeleteByShopcartId"
	log := s.log.With("op", op, "shopcart_id", shopcartId)

	if err := contextErr(ctx); err != nil {
		log.Error("Context is over", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM shopcart_items
		WHERE shopcart_id=$1;
	`, shopcartId)
	if err != nil {
		log.Error("Failed to delete shopcart items", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		log.Error("Failed to count deleted rows", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return deleted, nil
}

func (s *Storage) Find(ctx context.Context, key models.ItemKey) (models.ShopcartItem, error) {
	const op = "database.psql.Find"
	log := s.log.With("op", op, "shopcart_id", key.ShopcartId, "product_id", key.ProductId)

	if err := contextErr(ctx); err != nil {
		log.Error("Context is over", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	var item models.ShopcartItem
	if err := s.db.GetContext(ctx, &item, `
		SELECT `+itemColumns+` FROM shopcart_items
		WHERE shopcart_id=$1 AND product_id=$2;
	`, key.ShopcartId, key.ProductId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("Shopcart item doesn't exist")
			return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}

		log.Error("Failed to get shopcart item", sl.Err(err))
		return models.ShopcartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

func (s *Storage) FindByShopcartId(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	const op = "database.psql.FindByShopcartId"

	return s.selectItems(ctx, op, `
		SELECT `+itemColumns+` FROM shopcart_items
		WHERE shopcart_id=$1
		ORDER BY seq;
	`, shopcartId)
}

func (s *Storage) FindByProductId(ctx context.Context, productId int) ([]models.ShopcartItem, error) {
	const op = "database.psql.FindByProductId"

	return s.selectItems(ctx, op, `
		SELECT `+itemColumns+` FROM shopcart_items
		WHERE product_id=$1
		ORDER BY seq;
	`, productId)
}

func (s *Storage) All(ctx context.Context) ([]models.ShopcartItem, error) {
	const op = "database.psql.All"

	return s.selectItems(ctx, op, `
		SELECT `+itemColumns+` FROM shopcart_items
		ORDER BY seq;
	`)
}

// CheckoutShopcart flags every item of the shopcart as checked out and returns them.
// A shopcart without items yields an empty slice.
func (s *Storage) CheckoutShopcart(ctx context.Context, shopcartId int) ([]models.ShopcartItem, error) {
	const op = "database.psql.CheckoutShopcart"

	return s.selectItems(ctx, op, `
		WITH updated AS (
			UPDATE shopcart_items
			SET checkout=$2
			WHERE shopcart_id=$1
			RETURNING seq, `+itemColumns+`
		)
		SELECT `+itemColumns+` FROM updated
		ORDER BY seq;
	`, shopcartId, models.CheckedOut)
}

func (s *Storage) selectItems(ctx context.Context, op, query string, args ...any) ([]models.ShopcartItem, error) {
	log := s.log.With("op", op)

	if err := contextErr(ctx); err != nil {
		log.Error("Context is over", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]models.ShopcartItem, 0, 10)
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		log.Error("Failed to select shopcart items", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func contextErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
