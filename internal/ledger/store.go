package ledger

import (
	"context"

	"github.com/agrismart/marketplace/internal/models"
)

// Store persists ledger mutations. Each method covers one complete
// operation outcome so an implementation can make it atomic. The store is
// written before the in-memory commit: a storage failure leaves the ledger
// unchanged.
//
// A nil Store gives a purely in-memory ledger, reset on restart.
type Store interface {
	InsertListing(ctx context.Context, listing *models.Listing) error
	UpdateListing(ctx context.Context, listing *models.Listing) error
	InsertOrder(ctx context.Context, order *models.Order) error

	// ApplyAccept records an accepted order together with the depleted
	// listing in a single transaction.
	ApplyAccept(ctx context.Context, order *models.Order, listing *models.Listing) error
	ApplyReject(ctx context.Context, order *models.Order) error
	ApplyNegotiation(ctx context.Context, order *models.Order) error

	InsertTransaction(ctx context.Context, tx *models.Transaction) error
}
