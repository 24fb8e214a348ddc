package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrismart/marketplace/internal/models"
)

var errStoreDown = errors.New("store down")

// failingStore accepts inserts until failing is flipped, then refuses
// everything.
type failingStore struct {
	failing bool
}

func (s *failingStore) err() error {
	if s.failing {
		return errStoreDown
	}
	return nil
}

func (s *failingStore) InsertListing(context.Context, *models.Listing) error { return s.err() }
func (s *failingStore) UpdateListing(context.Context, *models.Listing) error { return s.err() }
func (s *failingStore) InsertOrder(context.Context, *models.Order) error     { return s.err() }
func (s *failingStore) ApplyAccept(context.Context, *models.Order, *models.Listing) error {
	return s.err()
}
func (s *failingStore) ApplyReject(context.Context, *models.Order) error          { return s.err() }
func (s *failingStore) ApplyNegotiation(context.Context, *models.Order) error     { return s.err() }
func (s *failingStore) InsertTransaction(context.Context, *models.Transaction) error {
	return s.err()
}

func TestStoreFailureLeavesLedgerUnchanged(t *testing.T) {
	store := &failingStore{}
	l := New(store)
	ctx := context.Background()

	listing := addListing(t, l, "Organic Tomatoes", "50", "40", models.ChannelCustomers)
	order := receiveOrder(t, l, listing.ID, 20, 38)

	store.failing = true

	_, err := l.AcceptOrder(ctx, order.ID)
	assert.ErrorIs(t, err, errStoreDown)

	after, getErr := l.GetListing(listing.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 50, after.Quantity, "no partial mutation on storage failure")
	assert.Len(t, l.PendingOrders(), 1)

	assert.ErrorIs(t, l.RejectOrder(ctx, order.ID), errStoreDown)
	assert.Len(t, l.PendingOrders(), 1)

	_, err = l.AddListing(ctx, ListingInput{
		CropName:   "Wheat",
		Quantity:   "10",
		PricePerKg: "22",
		Channel:    models.ChannelCustomers,
	})
	assert.ErrorIs(t, err, errStoreDown)
	assert.Len(t, l.Listings(), 1)
}
