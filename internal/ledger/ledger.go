// Package ledger owns the listings, incoming orders, and payment records of
// a single seller and enforces the marketplace quantity rules: a listing's
// quantity never goes negative, an accept is all-or-nothing, and a listing
// is SoldOut exactly when its quantity reaches zero.
package ledger

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrismart/marketplace/internal/models"
)

const defaultLocation = "Your Farm"

// Ledger holds one seller's marketplace state. All operations are safe for
// concurrent use; a single mutex is the mutual-exclusion boundary for the
// read-modify-write sequences inside.
type Ledger struct {
	mu           sync.Mutex
	store        Store
	listings     []models.Listing // newest first
	orders       []models.Order   // active set: pending + negotiating
	transactions []models.Transaction
}

// New creates an empty ledger. store may be nil for a purely in-memory
// ledger.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Restore replaces the ledger's collections with previously persisted state.
// Listings must already be ordered newest first; terminal orders must not be
// included.
func (l *Ledger) Restore(listings []models.Listing, orders []models.Order, transactions []models.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listings = append([]models.Listing(nil), listings...)
	l.orders = append([]models.Order(nil), orders...)
	l.transactions = append([]models.Transaction(nil), transactions...)
}

// ListingInput is the form-shaped input for AddListing. Numeric fields
// arrive as strings because the presentation layer submits raw form values.
type ListingInput struct {
	CropName         string
	Category         string
	Grade            string
	Quantity         string
	PricePerKg       string
	Organic          bool
	Channel          models.Channel
	Location         string
	HarvestDate      string
	MinOrderQuantity string
}

// AddListing validates the form input and prepends a new Active listing.
// Newest-first ordering is an observable contract: callers display listings
// in insertion order, most recent first.
func (l *Ledger) AddListing(ctx context.Context, input ListingInput) (*models.Listing, error) {
	if strings.TrimSpace(input.CropName) == "" {
		return nil, &ValidationError{Field: "crop_name", Reason: "required"}
	}
	if !input.Channel.Valid() {
		return nil, &ValidationError{Field: "channel", Reason: "must be customers or retailers"}
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(input.Quantity))
	if err != nil {
		return nil, &ValidationError{Field: "quantity", Reason: "must be an integer"}
	}
	if quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(input.PricePerKg))
	if err != nil {
		return nil, &ValidationError{Field: "price_per_kg", Reason: "must be a number"}
	}
	if !price.IsPositive() {
		return nil, &ValidationError{Field: "price_per_kg", Reason: "must be positive"}
	}

	minOrder := 0
	if input.Channel == models.ChannelRetailers && strings.TrimSpace(input.MinOrderQuantity) != "" {
		minOrder, err = strconv.Atoi(strings.TrimSpace(input.MinOrderQuantity))
		if err != nil {
			return nil, &ValidationError{Field: "min_order_quantity", Reason: "must be an integer"}
		}
		if minOrder <= 0 {
			return nil, &ValidationError{Field: "min_order_quantity", Reason: "must be positive"}
		}
		if minOrder > quantity {
			return nil, &ValidationError{Field: "min_order_quantity", Reason: "must not exceed quantity"}
		}
	}

	location := strings.TrimSpace(input.Location)
	if location == "" {
		location = defaultLocation
	}
	harvestDate := strings.TrimSpace(input.HarvestDate)
	if harvestDate == "" {
		harvestDate = time.Now().Format("2006-01-02")
	}

	listing := models.Listing{
		ID:               uuid.NewString(),
		CropName:         strings.TrimSpace(input.CropName),
		Category:         input.Category,
		Grade:            input.Grade,
		Quantity:         quantity,
		PricePerKg:       price,
		Organic:          input.Organic,
		Channel:          input.Channel,
		Status:           statusForQuantity(quantity),
		Location:         location,
		HarvestDate:      harvestDate,
		MinOrderQuantity: minOrder,
		CreatedAt:        time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		if err := l.store.InsertListing(ctx, &listing); err != nil {
			return nil, err
		}
	}

	l.listings = append([]models.Listing{listing}, l.listings...)
	return &listing, nil
}

// EditListing replaces a listing's mutable fields, re-running the same
// validation as AddListing. Status follows the new quantity.
func (l *Ledger) EditListing(ctx context.Context, id string, input ListingInput) (*models.Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.listingIndex(id)
	if idx == -1 {
		return nil, ErrListingNotFound
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(input.Quantity))
	if err != nil || quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be a non-negative integer"}
	}
	price, err := decimal.NewFromString(strings.TrimSpace(input.PricePerKg))
	if err != nil || !price.IsPositive() {
		return nil, &ValidationError{Field: "price_per_kg", Reason: "must be a positive number"}
	}

	updated := l.listings[idx]
	if name := strings.TrimSpace(input.CropName); name != "" {
		updated.CropName = name
	}
	updated.Quantity = quantity
	updated.PricePerKg = price
	updated.Organic = input.Organic
	updated.Status = statusForQuantity(quantity)
	if location := strings.TrimSpace(input.Location); location != "" {
		updated.Location = location
	}

	if l.store != nil {
		if err := l.store.UpdateListing(ctx, &updated); err != nil {
			return nil, err
		}
	}

	l.listings[idx] = updated
	return &updated, nil
}

// ReceiveOrder adds a buyer's bid to the active set. The target listing must
// exist and the requested quantity must be positive.
func (l *Ledger) ReceiveOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	if order.RequestedQuantity <= 0 {
		return nil, &ValidationError{Field: "requested_quantity", Reason: "must be positive"}
	}
	if strings.TrimSpace(order.BuyerName) == "" {
		return nil, &ValidationError{Field: "buyer_name", Reason: "required"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.listingIndex(order.ListingID) == -1 {
		return nil, ErrListingNotFound
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.ReceivedAt.IsZero() {
		order.ReceivedAt = time.Now()
	}
	order.Status = models.OrderPending

	if l.store != nil {
		if err := l.store.InsertOrder(ctx, &order); err != nil {
			return nil, err
		}
	}

	l.orders = append(l.orders, order)
	return &order, nil
}

// AcceptOrder fulfils an order in full against its listing. It fails with
// ErrInsufficientQuantity when the request exceeds the available quantity,
// leaving both the order and the listing untouched. On success the listing
// quantity is decremented, the listing becomes SoldOut at zero, and the
// order leaves the active set. A second accept of the same order fails with
// ErrOrderNotFound.
func (l *Ledger) AcceptOrder(ctx context.Context, orderID string) (*models.Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	oi := l.orderIndex(orderID)
	if oi == -1 {
		return nil, ErrOrderNotFound
	}
	order := l.orders[oi]

	li := l.listingIndex(order.ListingID)
	if li == -1 {
		return nil, ErrListingNotFound
	}
	listing := l.listings[li]

	if order.RequestedQuantity > listing.Quantity {
		return nil, ErrInsufficientQuantity
	}

	listing.Quantity -= order.RequestedQuantity
	listing.Status = statusForQuantity(listing.Quantity)
	order.Status = models.OrderAccepted

	if l.store != nil {
		if err := l.store.ApplyAccept(ctx, &order, &listing); err != nil {
			return nil, err
		}
	}

	l.listings[li] = listing
	l.orders = append(l.orders[:oi], l.orders[oi+1:]...)
	return &listing, nil
}

// RejectOrder removes an order from the active set without touching the
// listing. Unknown or already-terminal order IDs fail with ErrOrderNotFound.
func (l *Ledger) RejectOrder(ctx context.Context, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	oi := l.orderIndex(orderID)
	if oi == -1 {
		return ErrOrderNotFound
	}
	order := l.orders[oi]
	order.Status = models.OrderRejected

	if l.store != nil {
		if err := l.store.ApplyReject(ctx, &order); err != nil {
			return err
		}
	}

	l.orders = append(l.orders[:oi], l.orders[oi+1:]...)
	return nil
}

// OpenNegotiation marks an order as under negotiation and returns a copy.
// The order stays in the active set and remains eligible for accept and
// reject. No counter-offer is persisted; see MidpointPrice.
func (l *Ledger) OpenNegotiation(ctx context.Context, orderID string) (*models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	oi := l.orderIndex(orderID)
	if oi == -1 {
		return nil, ErrOrderNotFound
	}
	order := l.orders[oi]
	order.Status = models.OrderNegotiating

	if l.store != nil {
		if err := l.store.ApplyNegotiation(ctx, &order); err != nil {
			return nil, err
		}
	}

	l.orders[oi] = order
	return &order, nil
}

// Midpoint resolves an order and its listing and returns the meet-in-the-
// middle price. Display-only: it is never written back to the order.
func (l *Ledger) Midpoint(orderID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	oi := l.orderIndex(orderID)
	if oi == -1 {
		return decimal.Zero, ErrOrderNotFound
	}
	li := l.listingIndex(l.orders[oi].ListingID)
	if li == -1 {
		return decimal.Zero, ErrListingNotFound
	}
	return MidpointPrice(l.listings[li].PricePerKg, l.orders[oi].BidPricePerKg), nil
}

// RecordTransaction appends a payment record.
func (l *Ledger) RecordTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if !tx.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		if err := l.store.InsertTransaction(ctx, &tx); err != nil {
			return nil, err
		}
	}

	l.transactions = append(l.transactions, tx)
	return &tx, nil
}

// Listings returns a snapshot of all listings, newest first.
func (l *Ledger) Listings() []models.Listing {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Listing(nil), l.listings...)
}

// ListingsByChannel returns the listings offered to one buyer class, in the
// same relative order as the underlying collection.
func (l *Ledger) ListingsByChannel(channel models.Channel) []models.Listing {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.Listing
	for _, listing := range l.listings {
		if listing.Channel == channel {
			out = append(out, listing)
		}
	}
	return out
}

// GetListing returns one listing by ID.
func (l *Ledger) GetListing(id string) (*models.Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.listingIndex(id)
	if idx == -1 {
		return nil, ErrListingNotFound
	}
	listing := l.listings[idx]
	return &listing, nil
}

// PendingOrders returns a snapshot of the active set (pending and
// negotiating orders).
func (l *Ledger) PendingOrders() []models.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Order(nil), l.orders...)
}

// Transactions returns a snapshot of the payment records.
func (l *Ledger) Transactions() []models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Transaction(nil), l.transactions...)
}

// AggregatePayments sums the transaction amounts matching a status.
func AggregatePayments(transactions []models.Transaction, status models.TransactionStatus) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if tx.Status == status {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// MidpointPrice is the display-only "meet in the middle" negotiation price.
func MidpointPrice(listingPrice, bidPrice decimal.Decimal) decimal.Decimal {
	return listingPrice.Add(bidPrice).Div(decimal.NewFromInt(2))
}

func statusForQuantity(quantity int) models.ListingStatus {
	if quantity == 0 {
		return models.ListingSoldOut
	}
	return models.ListingActive
}

func (l *Ledger) listingIndex(id string) int {
	for i := range l.listings {
		if l.listings[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) orderIndex(id string) int {
	for i := range l.orders {
		if l.orders[i].ID == id {
			return i
		}
	}
	return -1
}
