package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agrismart/marketplace/internal/ledger"
	"github.com/agrismart/marketplace/internal/models"
)

const listingColumns = `id, crop_name, category, grade, quantity, price_per_kg, organic,
	channel, status, location, harvest_date, min_order_quantity, created_at`

func scanListing(row interface{ Scan(...any) error }) (models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID,
		&l.CropName,
		&l.Category,
		&l.Grade,
		&l.Quantity,
		&l.PricePerKg,
		&l.Organic,
		&l.Channel,
		&l.Status,
		&l.Location,
		&l.HarvestDate,
		&l.MinOrderQuantity,
		&l.CreatedAt,
	)
	return l, err
}

func (s *Postgres) InsertListing(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO listings (id, crop_name, category, grade, quantity, price_per_kg, organic,
			channel, status, location, harvest_date, min_order_quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.db.ExecContext(ctx, query,
		listing.ID,
		listing.CropName,
		listing.Category,
		listing.Grade,
		listing.Quantity,
		listing.PricePerKg,
		listing.Organic,
		listing.Channel,
		listing.Status,
		listing.Location,
		listing.HarvestDate,
		listing.MinOrderQuantity,
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}

	return nil
}

func (s *Postgres) UpdateListing(ctx context.Context, listing *models.Listing) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE listings
		 SET crop_name = $1, quantity = $2, price_per_kg = $3, organic = $4,
		     status = $5, location = $6
		 WHERE id = $7`,
		listing.CropName,
		listing.Quantity,
		listing.PricePerKg,
		listing.Organic,
		listing.Status,
		listing.Location,
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ledger.ErrListingNotFound
	}

	return nil
}

func (s *Postgres) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	listing, err := scanListing(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	return &listing, nil
}

func (s *Postgres) ListListings(ctx context.Context) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return listings, nil
}
