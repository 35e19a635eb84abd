// internal/repository/postgres/sale_repo.go
package postgres

import (
	"context"
	"fmt"

	"contracts-service/internal/domain/sale"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SaleRepository struct {
	db *pgxpool.Pool
}

func NewSaleRepository(db *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{db: db}
}

// RegisterSale appends a ledger entry. Re-registering the same id is a no-op.
func (r *SaleRepository) RegisterSale(ctx context.Context, rec *sale.SaleRecord) (string, error) {
	query := `
		INSERT INTO sales (
			id, client_id, coach_id, transaction_type,
			gross_amount, fee_percent, fee_amount, net_amount,
			commission_percent, commission_amount,
			phase, payment_method, payment_method_label, sale_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.ClientID, rec.CoachID, rec.TransactionType,
		rec.GrossAmount, rec.FeePercent, rec.FeeAmount, rec.NetAmount,
		rec.CommissionPercent, rec.CommissionAmount,
		rec.Phase, rec.PaymentMethod, rec.PaymentMethodLabel, rec.Date, rec.Notes,
	)
	if err != nil {
		return "", fmt.Errorf("failed to register sale: %w", err)
	}
	return rec.ID, nil
}
