package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agrismart/marketplace/internal/database"
	"github.com/agrismart/marketplace/internal/ledger"
	"github.com/agrismart/marketplace/internal/models"
)

const orderColumns = `id, buyer_name, buyer_avatar, location, received_at,
	bid_price_per_kg, listing_id, requested_quantity, status`

func scanOrder(row interface{ Scan(...any) error }) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.BuyerName,
		&o.BuyerAvatar,
		&o.Location,
		&o.ReceivedAt,
		&o.BidPricePerKg,
		&o.ListingID,
		&o.RequestedQuantity,
		&o.Status,
	)
	return o, err
}

func (s *Postgres) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, buyer_name, buyer_avatar, location, received_at,
			bid_price_per_kg, listing_id, requested_quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		order.ID,
		order.BuyerName,
		order.BuyerAvatar,
		order.Location,
		order.ReceivedAt,
		order.BidPricePerKg,
		order.ListingID,
		order.RequestedQuantity,
		order.Status,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// ApplyAccept marks the order terminal and depletes the listing in one
// transaction. The guarded decrement is defense in depth under the ledger's
// own check: the row is only touched while enough quantity remains, so the
// quantity column can never go negative even with a second writer.
func (s *Postgres) ApplyAccept(ctx context.Context, order *models.Order, listing *models.Listing) error {
	return database.WithRetry(ctx, s.db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1
			 WHERE id = $2
			   AND status IN ($3, $4)`,
			models.OrderAccepted, order.ID, models.OrderPending, models.OrderNegotiating)
		if err != nil {
			return fmt.Errorf("accept order: %w", err)
		}
		if err := requireRow(result, ledger.ErrOrderNotFound); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE listings
			 SET quantity = quantity - $1,
			     status = CASE WHEN quantity - $1 = 0 THEN $2 ELSE $3 END
			 WHERE id = $4
			   AND quantity >= $1`,
			order.RequestedQuantity, models.ListingSoldOut, models.ListingActive, order.ListingID)
		if err != nil {
			return fmt.Errorf("decrement listing quantity: %w", err)
		}
		return requireRow(result, ledger.ErrInsufficientQuantity)
	})
}

func (s *Postgres) ApplyReject(ctx context.Context, order *models.Order) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1
		 WHERE id = $2
		   AND status IN ($3, $4)`,
		models.OrderRejected, order.ID, models.OrderPending, models.OrderNegotiating)
	if err != nil {
		return fmt.Errorf("reject order: %w", err)
	}
	return requireRow(result, ledger.ErrOrderNotFound)
}

func (s *Postgres) ApplyNegotiation(ctx context.Context, order *models.Order) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1
		 WHERE id = $2
		   AND status IN ($1, $3)`,
		models.OrderNegotiating, order.ID, models.OrderPending)
	if err != nil {
		return fmt.Errorf("mark order negotiating: %w", err)
	}
	return requireRow(result, ledger.ErrOrderNotFound)
}

func (s *Postgres) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &order, nil
}

// ListOpenOrders returns the active set: pending and negotiating orders in
// arrival order.
func (s *Postgres) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN ($1, $2)
		ORDER BY received_at`

	rows, err := s.db.QueryContext(ctx, query, models.OrderPending, models.OrderNegotiating)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func requireRow(result sql.Result, missing error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return missing
	}
	return nil
}
