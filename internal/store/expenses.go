package store

import (
	"context"
	"fmt"

	"github.com/agrismart/marketplace/internal/models"
)

func (s *Postgres) InsertExpense(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (id, category, amount, date)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query, expense.ID, expense.Category, expense.Amount, expense.Date)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	return nil
}

func (s *Postgres) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	query := `
		SELECT id, category, amount, date
		FROM expenses
		ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Amount, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return expenses, nil
}
