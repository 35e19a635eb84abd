// internal/repository/postgres/catalog_repo.go
package postgres

import (
	"context"
	"fmt"

	"contracts-service/internal/domain/catalog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository reads the offer, payment method and coach tables maintained by the CRM.
type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListOffers(ctx context.Context) ([]catalog.Offer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT offer_ref, name, price, duration_months
		FROM offers
		WHERE active = TRUE
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var out []catalog.Offer
	for rows.Next() {
		var o catalog.Offer
		if err := rows.Scan(&o.OfferRef, &o.Name, &o.Price, &o.DurationMonths); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListPaymentMethods(ctx context.Context) ([]catalog.PaymentMethodFee, error) {
	rows, err := r.db.Query(ctx, `SELECT name, fee_percent FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	var out []catalog.PaymentMethodFee
	for rows.Next() {
		var m catalog.PaymentMethodFee
		if err := rows.Scan(&m.Name, &m.FeePercent); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListCoaches(ctx context.Context) ([]catalog.Coach, error) {
	rows, err := r.db.Query(ctx, `
		SELECT coach_id, name, commission_percent
		FROM coaches
		WHERE active = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coaches: %w", err)
	}
	defer rows.Close()

	var out []catalog.Coach
	for rows.Next() {
		var c catalog.Coach
		if err := rows.Scan(&c.CoachID, &c.Name, &c.CommissionPercent); err != nil {
			return nil, fmt.Errorf("failed to scan coach: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
