// Package store is the Postgres implementation of ledger.Store, plus the
// queries the insights and payment-history views read from.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agrismart/marketplace/internal/models"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Load hydrates a seller's ledger state: listings newest first, the open
// order set, and the payment records.
func (s *Postgres) Load(ctx context.Context) ([]models.Listing, []models.Order, []models.Transaction, error) {
	listings, err := s.ListListings(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load listings: %w", err)
	}

	orders, err := s.ListOpenOrders(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load orders: %w", err)
	}

	transactions, err := s.ListTransactions(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load transactions: %w", err)
	}

	return listings, orders, transactions, nil
}
