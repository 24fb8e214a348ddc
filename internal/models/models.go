package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel is the buyer class a listing is offered to.
type Channel string

const (
	ChannelCustomers Channel = "customers"
	ChannelRetailers Channel = "retailers"
)

func (c Channel) Valid() bool {
	return c == ChannelCustomers || c == ChannelRetailers
}

// ListingStatus tracks a listing's availability. SoldOut is maintained by
// the ledger from the remaining quantity, never set directly by the seller.
type ListingStatus string

const (
	ListingActive  ListingStatus = "Active"
	ListingPaused  ListingStatus = "Paused"
	ListingSoldOut ListingStatus = "SoldOut"
)

type OrderStatus string

const (
	OrderPending     OrderStatus = "pending"
	OrderNegotiating OrderStatus = "negotiating"
	OrderAccepted    OrderStatus = "accepted"
	OrderRejected    OrderStatus = "rejected"
)

// Terminal reports whether no further transition is permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderAccepted || s == OrderRejected
}

type TransactionStatus string

const (
	TransactionReceived TransactionStatus = "Received"
	TransactionPending  TransactionStatus = "Pending"
)

// Listing is a sellable batch of produce owned by one seller.
type Listing struct {
	ID               string          `json:"id"`
	CropName         string          `json:"crop_name"`
	Category         string          `json:"category"`
	Grade            string          `json:"grade"`
	Quantity         int             `json:"quantity"` // kg
	PricePerKg       decimal.Decimal `json:"price_per_kg"`
	Organic          bool            `json:"organic"`
	Channel          Channel         `json:"channel"`
	Status           ListingStatus   `json:"status"`
	Location         string          `json:"location"`
	HarvestDate      string          `json:"harvest_date"`
	MinOrderQuantity int             `json:"min_order_quantity,omitempty"` // retailers only, 0 = unset
	CreatedAt        time.Time       `json:"created_at"`
}

// Order is a buyer's bid against one listing.
type Order struct {
	ID                string          `json:"id"`
	BuyerName         string          `json:"buyer_name"`
	BuyerAvatar       string          `json:"buyer_avatar"`
	Location          string          `json:"location"`
	ReceivedAt        time.Time       `json:"received_at"`
	BidPricePerKg     decimal.Decimal `json:"bid_price_per_kg"`
	ListingID         string          `json:"listing_id"`
	RequestedQuantity int             `json:"requested_quantity"`
	Status            OrderStatus     `json:"status"`
}

// Transaction is a completed payment record. Informational only.
type Transaction struct {
	ID        string            `json:"id"`
	BuyerName string            `json:"buyer_name"`
	Date      time.Time         `json:"date"`
	Amount    decimal.Decimal   `json:"amount"`
	Status    TransactionStatus `json:"status"`
}

// Expense is a categorized farm cost used by the insights module.
type Expense struct {
	ID       string          `json:"id"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}
