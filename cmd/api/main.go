package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/agrismart/marketplace/internal/advisor"
	"github.com/agrismart/marketplace/internal/config"
	"github.com/agrismart/marketplace/internal/database"
	"github.com/agrismart/marketplace/internal/ledger"
	"github.com/agrismart/marketplace/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	pg := store.NewPostgres(db)

	led := ledger.New(pg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	listings, orders, transactions, err := pg.Load(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Load ledger state: %v", err)
	}
	led.Restore(listings, orders, transactions)
	log.Printf("Ledger restored: %d listings, %d open orders, %d transactions",
		len(listings), len(orders), len(transactions))

	adv := advisor.New(cfg.Advisor.ReplyDelay, cfg.Advisor.Language)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newRouter(led, pg, adv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newRouter(led *ledger.Ledger, pg *store.Postgres, adv *advisor.Advisor) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/listings", handleAddListing(led)).Methods(http.MethodPost)
	r.HandleFunc("/listings", handleListListings(led)).Methods(http.MethodGet)
	r.HandleFunc("/listings/{id}", handleGetListing(led)).Methods(http.MethodGet)
	r.HandleFunc("/listings/{id}", handleEditListing(led)).Methods(http.MethodPut)

	r.HandleFunc("/orders", handleReceiveOrder(led)).Methods(http.MethodPost)
	r.HandleFunc("/orders", handlePendingOrders(led)).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}/accept", handleAcceptOrder(led)).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/reject", handleRejectOrder(led)).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/negotiate", handleOpenNegotiation(led)).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id}/midpoint", handleMidpoint(led)).Methods(http.MethodGet)

	r.HandleFunc("/payments", handlePayments(led)).Methods(http.MethodGet)
	r.HandleFunc("/transactions", handleRecordTransaction(led)).Methods(http.MethodPost)
	r.HandleFunc("/transactions", handleTransactionHistory(pg)).Methods(http.MethodGet)

	r.HandleFunc("/insights", handleInsights(led, pg)).Methods(http.MethodGet)
	r.HandleFunc("/advisor/chat", handleAdvisorChat(adv)).Methods(http.MethodPost)

	return r
}
