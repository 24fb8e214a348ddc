package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/agrismart/marketplace/internal/advisor"
	"github.com/agrismart/marketplace/internal/insights"
	"github.com/agrismart/marketplace/internal/ledger"
	"github.com/agrismart/marketplace/internal/models"
	"github.com/agrismart/marketplace/internal/store"
)

func handleAddListing(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CropName         string `json:"crop_name"`
			Category         string `json:"category"`
			Grade            string `json:"grade"`
			Quantity         string `json:"quantity"`
			PricePerKg       string `json:"price_per_kg"`
			Organic          bool   `json:"organic"`
			Channel          string `json:"channel"`
			Location         string `json:"location"`
			HarvestDate      string `json:"harvest_date"`
			MinOrderQuantity string `json:"min_order_quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		listing, err := led.AddListing(r.Context(), ledger.ListingInput{
			CropName:         req.CropName,
			Category:         req.Category,
			Grade:            req.Grade,
			Quantity:         req.Quantity,
			PricePerKg:       req.PricePerKg,
			Organic:          req.Organic,
			Channel:          models.Channel(req.Channel),
			Location:         req.Location,
			HarvestDate:      req.HarvestDate,
			MinOrderQuantity: req.MinOrderQuantity,
		})
		if err != nil {
			respondDomainError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, listing)
	}
}

func handleListListings(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel := models.Channel(r.URL.Query().Get("channel"))
		if channel == "" {
			respondJSON(w, http.StatusOK, led.Listings())
			return
		}
		if !channel.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid channel")
			return
		}
		respondJSON(w, http.StatusOK, led.ListingsByChannel(channel))
	}
}

func handleGetListing(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := led.GetListing(mux.Vars(r)["id"])
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, listing)
	}
}

func handleEditListing(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CropName   string `json:"crop_name"`
			Quantity   string `json:"quantity"`
			PricePerKg string `json:"price_per_kg"`
			Organic    bool   `json:"organic"`
			Location   string `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		listing, err := led.EditListing(r.Context(), mux.Vars(r)["id"], ledger.ListingInput{
			CropName:   req.CropName,
			Quantity:   req.Quantity,
			PricePerKg: req.PricePerKg,
			Organic:    req.Organic,
			Location:   req.Location,
		})
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, listing)
	}
}

func handleReceiveOrder(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BuyerName         string `json:"buyer_name"`
			BuyerAvatar       string `json:"buyer_avatar"`
			Location          string `json:"location"`
			BidPricePerKg     string `json:"bid_price_per_kg"`
			ListingID         string `json:"listing_id"`
			RequestedQuantity int    `json:"requested_quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		bid, err := decimal.NewFromString(req.BidPricePerKg)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid bid price")
			return
		}

		order, err := led.ReceiveOrder(r.Context(), models.Order{
			BuyerName:         req.BuyerName,
			BuyerAvatar:       req.BuyerAvatar,
			Location:          req.Location,
			BidPricePerKg:     bid,
			ListingID:         req.ListingID,
			RequestedQuantity: req.RequestedQuantity,
		})
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, order)
	}
}

func handlePendingOrders(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, led.PendingOrders())
	}
}

func handleAcceptOrder(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := led.AcceptOrder(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, listing)
	}
}

func handleRejectOrder(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := led.RejectOrder(r.Context(), mux.Vars(r)["id"]); err != nil {
			respondDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleOpenNegotiation(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := led.OpenNegotiation(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, order)
	}
}

func handleMidpoint(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mid, err := led.Midpoint(mux.Vars(r)["id"])
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"midpoint_price_per_kg": mid})
	}
}

func handlePayments(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactions := led.Transactions()
		respondJSON(w, http.StatusOK, map[string]decimal.Decimal{
			"received": ledger.AggregatePayments(transactions, models.TransactionReceived),
			"pending":  ledger.AggregatePayments(transactions, models.TransactionPending),
		})
	}
}

func handleRecordTransaction(led *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BuyerName string `json:"buyer_name"`
			Amount    string `json:"amount"`
			Status    string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		status := models.TransactionStatus(req.Status)
		if status != models.TransactionReceived && status != models.TransactionPending {
			respondError(w, http.StatusBadRequest, "Invalid status")
			return
		}

		tx, err := led.RecordTransaction(r.Context(), models.Transaction{
			BuyerName: req.BuyerName,
			Amount:    amount,
			Status:    status,
		})
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, tx)
	}
}

func handleTransactionHistory(pg *store.Postgres) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		result, err := pg.ListTransactionsPage(r.Context(), page, pageSize)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func handleInsights(led *ledger.Ledger, pg *store.Postgres) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := insights.Period(r.URL.Query().Get("period"))
		if period == "" {
			period = insights.PeriodMonthly
		}
		if !period.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid period")
			return
		}

		expenses, err := pg.ListExpenses(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		transactions := led.Transactions()
		now := time.Now()
		respondJSON(w, http.StatusOK, map[string]any{
			"summary":   insights.Summarize(transactions, expenses, period, now),
			"chart":     insights.Series(transactions, expenses, period, now),
			"breakdown": insights.Breakdown(expenses),
		})
	}
}

func handleAdvisorChat(adv *advisor.Advisor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		reply, err := adv.Respond(r.Context(), req.Message)
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, reply)
	}
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrListingNotFound), errors.Is(err, ledger.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientQuantity):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
