package integration

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrismart/marketplace/internal/ledger"
	"github.com/agrismart/marketplace/internal/models"
	"github.com/agrismart/marketplace/internal/store"
)

func newLedger(t *testing.T, db *sql.DB) (*ledger.Ledger, *store.Postgres) {
	t.Helper()
	pg := store.NewPostgres(db)
	led := ledger.New(pg)

	listings, orders, transactions, err := pg.Load(context.Background())
	if err != nil {
		t.Fatalf("Load ledger state: %v", err)
	}
	led.Restore(listings, orders, transactions)
	return led, pg
}

func addListing(t *testing.T, led *ledger.Ledger, crop, quantity, price string, channel models.Channel) *models.Listing {
	t.Helper()
	listing, err := led.AddListing(context.Background(), ledger.ListingInput{
		CropName:   crop,
		Category:   "Vegetables",
		Grade:      "Grade A",
		Quantity:   quantity,
		PricePerKg: price,
		Channel:    channel,
	})
	if err != nil {
		t.Fatalf("Add listing: %v", err)
	}
	return listing
}

func receiveOrder(t *testing.T, led *ledger.Ledger, listingID string, quantity int) *models.Order {
	t.Helper()
	order, err := led.ReceiveOrder(context.Background(), models.Order{
		BuyerName:         "Raj Trading Co.",
		BuyerAvatar:       "R",
		Location:          "Pune Mandi",
		BidPricePerKg:     decimal.NewFromInt(38),
		ListingID:         listingID,
		RequestedQuantity: quantity,
	})
	if err != nil {
		t.Fatalf("Receive order: %v", err)
	}
	return order
}

func TestAcceptFlowPersists(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	led, pg := newLedger(t, db)

	listing := addListing(t, led, "Organic Tomatoes", "50", "40", models.ChannelCustomers)
	order := receiveOrder(t, led, listing.ID, 50)

	updated, err := led.AcceptOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Accept order: %v", err)
	}
	if updated.Quantity != 0 {
		t.Errorf("Expected quantity 0, got %d", updated.Quantity)
	}
	if updated.Status != models.ListingSoldOut {
		t.Errorf("Expected status SoldOut, got %s", updated.Status)
	}

	stored, err := pg.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if stored.Status != models.OrderAccepted {
		t.Errorf("Expected stored order accepted, got %s", stored.Status)
	}

	// A fresh ledger hydrated from the database sees the same state.
	led2, _ := newLedger(t, db)
	if pending := led2.PendingOrders(); len(pending) != 0 {
		t.Errorf("Expected no pending orders after reload, got %d", len(pending))
	}
	reloaded, err := led2.GetListing(listing.ID)
	if err != nil {
		t.Fatalf("Get listing after reload: %v", err)
	}
	if reloaded.Quantity != 0 || reloaded.Status != models.ListingSoldOut {
		t.Errorf("Expected reloaded listing SoldOut/0, got %s/%d", reloaded.Status, reloaded.Quantity)
	}
}

func TestInsufficientQuantityLeavesRowUnchanged(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	led, pg := newLedger(t, db)

	listing := addListing(t, led, "Organic Tomatoes", "50", "40", models.ChannelCustomers)
	order := receiveOrder(t, led, listing.ID, 60)

	_, err := led.AcceptOrder(ctx, order.ID)
	if err != ledger.ErrInsufficientQuantity {
		t.Fatalf("Expected insufficient quantity error, got: %v", err)
	}

	stored, err := pg.GetListing(ctx, listing.ID)
	if err != nil {
		t.Fatalf("Get listing: %v", err)
	}
	if stored.Quantity != 50 {
		t.Errorf("Quantity should remain 50, got %d", stored.Quantity)
	}

	pendingOrder, err := pg.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if pendingOrder.Status != models.OrderPending {
		t.Errorf("Order should remain pending, got %s", pendingOrder.Status)
	}
}

func TestRejectedOrderIsTerminal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	led, pg := newLedger(t, db)

	listing := addListing(t, led, "Red Onions", "30", "25", models.ChannelRetailers)
	order := receiveOrder(t, led, listing.ID, 10)

	if err := led.RejectOrder(ctx, order.ID); err != nil {
		t.Fatalf("Reject order: %v", err)
	}

	stored, err := pg.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if stored.Status != models.OrderRejected {
		t.Errorf("Expected rejected, got %s", stored.Status)
	}

	if _, err := led.AcceptOrder(ctx, order.ID); err != ledger.ErrOrderNotFound {
		t.Errorf("Expected order not found after reject, got: %v", err)
	}
}

func TestConcurrentAccepts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	led, pg := newLedger(t, db)

	listing := addListing(t, led, "Wheat", "20", "22", models.ChannelRetailers)

	orderCount := 10
	orderIDs := make([]string, 0, orderCount)
	for i := 0; i < orderCount; i++ {
		orderIDs = append(orderIDs, receiveOrder(t, led, listing.ID, 5).ID)
	}

	var wg sync.WaitGroup
	results := make(chan error, orderCount)

	for _, id := range orderIDs {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			_, err := led.AcceptOrder(ctx, orderID)
			results <- err
		}(id)
	}

	wg.Wait()
	close(results)

	successCount := 0
	insufficientCount := 0
	for err := range results {
		switch err {
		case nil:
			successCount++
		case ledger.ErrInsufficientQuantity:
			insufficientCount++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 4 {
		t.Errorf("Expected 4 successful accepts of 5kg into 20kg, got %d", successCount)
	}
	if insufficientCount != orderCount-4 {
		t.Errorf("Expected %d insufficient-quantity failures, got %d", orderCount-4, insufficientCount)
	}

	stored, err := pg.GetListing(ctx, listing.ID)
	if err != nil {
		t.Fatalf("Get listing: %v", err)
	}
	if stored.Quantity != 0 {
		t.Errorf("Expected final quantity 0, got %d", stored.Quantity)
	}
	if stored.Status != models.ListingSoldOut {
		t.Errorf("Expected SoldOut, got %s", stored.Status)
	}
}

func TestListingsReloadNewestFirst(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	led, _ := newLedger(t, db)

	addListing(t, led, "Organic Tomatoes", "50", "40", models.ChannelCustomers)
	second := addListing(t, led, "Red Onions", "30", "25", models.ChannelRetailers)

	led2, _ := newLedger(t, db)
	listings := led2.Listings()
	if len(listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(listings))
	}
	if listings[0].ID != second.ID {
		t.Errorf("Expected newest listing first after reload")
	}
}

func TestTransactionAggregation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	led, pg := newLedger(t, db)

	if _, err := led.RecordTransaction(ctx, models.Transaction{
		BuyerName: "FreshMart",
		Amount:    decimal.NewFromInt(12500),
		Status:    models.TransactionReceived,
	}); err != nil {
		t.Fatalf("Record transaction: %v", err)
	}
	if _, err := led.RecordTransaction(ctx, models.Transaction{
		BuyerName: "GreenGrocers",
		Amount:    decimal.NewFromInt(4200),
		Status:    models.TransactionPending,
	}); err != nil {
		t.Fatalf("Record transaction: %v", err)
	}

	received, err := pg.SumTransactions(ctx, models.TransactionReceived)
	if err != nil {
		t.Fatalf("Sum received: %v", err)
	}
	if !received.Equal(decimal.NewFromInt(12500)) {
		t.Errorf("Expected received 12500, got %s", received)
	}

	pending, err := pg.SumTransactions(ctx, models.TransactionPending)
	if err != nil {
		t.Fatalf("Sum pending: %v", err)
	}
	if !pending.Equal(decimal.NewFromInt(4200)) {
		t.Errorf("Expected pending 4200, got %s", pending)
	}

	// The in-memory aggregate matches the database-side sum.
	inMemory := ledger.AggregatePayments(led.Transactions(), models.TransactionReceived)
	if !inMemory.Equal(received) {
		t.Errorf("In-memory aggregate %s does not match stored sum %s", inMemory, received)
	}

	page, err := pg.ListTransactionsPage(ctx, 1, 10)
	if err != nil {
		t.Fatalf("List transactions page: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected 2 transactions, got %d", page.Total)
	}
}

func TestExpensesRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	pg := store.NewPostgres(db)

	if err := pg.InsertExpense(ctx, &models.Expense{
		ID:       "2f1e9c74-9c6e-4d5e-8a37-52a8fbb61d10",
		Category: "Fertilizers",
		Amount:   decimal.NewFromInt(15000),
		Date:     time.Now(),
	}); err != nil {
		t.Fatalf("Insert expense: %v", err)
	}

	expenses, err := pg.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("List expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("Expected 1 expense, got %d", len(expenses))
	}
	if expenses[0].Category != "Fertilizers" {
		t.Errorf("Expected Fertilizers, got %s", expenses[0].Category)
	}
}
