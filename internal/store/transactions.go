package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agrismart/marketplace/internal/models"
)

func (s *Postgres) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, buyer_name, date, amount, status)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, tx.ID, tx.BuyerName, tx.Date, tx.Amount, tx.Status)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

func (s *Postgres) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `
		SELECT id, buyer_name, date, amount, status
		FROM transactions
		ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.BuyerName, &tx.Date, &tx.Amount, &tx.Status); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return transactions, nil
}

// ListTransactionsPage is the offset-paged payment history view.
func (s *Postgres) ListTransactionsPage(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, buyer_name, date, amount, status
		FROM transactions
		ORDER BY date DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.BuyerName, &tx.Date, &tx.Amount, &tx.Status); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      transactions,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// SumTransactions aggregates payment amounts by status on the database
// side, matching ledger.AggregatePayments for persisted data.
func (s *Postgres) SumTransactions(ctx context.Context, status models.TransactionStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE status = $1`,
		status).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return total, nil
}
