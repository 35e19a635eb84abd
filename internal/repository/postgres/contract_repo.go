// internal/repository/postgres/contract_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contracts-service/internal/domain/contract"
	xerrors "contracts-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const contractColumns = `
	client_id, coach_id, start_date, base_duration_months, phases, contract_end_date,
	status, pause_date, pause_reason, signature,
	staged_duration, staged_amount, staged_payment_method, staged_offer_ref,
	renewal, version, created_at, updated_at`

type ContractRepository struct {
	db *pgxpool.Pool
}

func NewContractRepository(db *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts a new aggregate; xerrors.ErrConflict if the client already has one.
func (r *ContractRepository) Create(ctx context.Context, agg *contract.ContractAggregate) error {
	enc, err := encodeContract(agg)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO contracts (
			client_id, coach_id, start_date, base_duration_months, phases, contract_end_date,
			status, pause_date, pause_reason, signature,
			staged_duration, staged_amount, staged_payment_method, staged_offer_ref, renewal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING version, created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		agg.ClientID, agg.CoachID, agg.StartDate, agg.BaseDurationMonths, enc.phases, agg.ContractEndDate,
		agg.Status, agg.PauseDate, agg.PauseReason, enc.signature,
		agg.StagedDuration, nullDecimal(agg.StagedAmount), methodString(agg.StagedPaymentMethod), agg.StagedOfferRef, enc.renewal,
	).Scan(&agg.Version, &agg.CreatedAt, &agg.UpdatedAt)

	if isUniqueViolation(err) {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

func (r *ContractRepository) Load(ctx context.Context, clientID string) (*contract.ContractAggregate, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE client_id = $1`

	agg, err := scanContract(r.db.QueryRow(ctx, query, clientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	return agg, nil
}

// Save overwrites the whole aggregate if nobody saved it since it was loaded.
// On success agg.Version is advanced to the stored version.
func (r *ContractRepository) Save(ctx context.Context, agg *contract.ContractAggregate) error {
	enc, err := encodeContract(agg)
	if err != nil {
		return err
	}

	query := `
		UPDATE contracts
		SET coach_id = $3, start_date = $4, base_duration_months = $5, phases = $6,
		    contract_end_date = $7, status = $8, pause_date = $9, pause_reason = $10,
		    signature = $11, staged_duration = $12, staged_amount = $13,
		    staged_payment_method = $14, staged_offer_ref = $15, renewal = $16,
		    version = version + 1, updated_at = $17
		WHERE client_id = $1 AND version = $2
	`

	now := time.Now()
	result, err := r.db.Exec(ctx, query,
		agg.ClientID, agg.Version,
		agg.CoachID, agg.StartDate, agg.BaseDurationMonths, enc.phases,
		agg.ContractEndDate, agg.Status, agg.PauseDate, agg.PauseReason,
		enc.signature, agg.StagedDuration, nullDecimal(agg.StagedAmount),
		methodString(agg.StagedPaymentMethod), agg.StagedOfferRef, enc.renewal,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE client_id = $1)`, agg.ClientID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check contract: %w", err)
		}
		if !exists {
			return xerrors.ErrNotFound
		}
		return fmt.Errorf("%w: contract %s was modified concurrently (version %d)", xerrors.ErrConflict, agg.ClientID, agg.Version)
	}

	agg.Version++
	agg.UpdatedAt = now
	return nil
}

// ListExpiring returns running contracts whose end date falls in [from, to].
func (r *ContractRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]contract.ContractAggregate, error) {
	query := `SELECT ` + contractColumns + `
		FROM contracts
		WHERE contract_end_date BETWEEN $1 AND $2
		  AND status IN ('active', 'paused')
		ORDER BY contract_end_date ASC`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring contracts: %w", err)
	}
	defer rows.Close()

	var out []contract.ContractAggregate
	for rows.Next() {
		agg, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, *agg)
	}
	return out, rows.Err()
}

type encodedContract struct {
	phases    []byte
	signature []byte
	renewal   []byte
}

func encodeContract(agg *contract.ContractAggregate) (encodedContract, error) {
	var enc encodedContract
	var err error
	if enc.phases, err = json.Marshal(agg.Phases); err != nil {
		return enc, fmt.Errorf("failed to marshal phases: %w", err)
	}
	if enc.signature, err = json.Marshal(agg.Signature); err != nil {
		return enc, fmt.Errorf("failed to marshal signature: %w", err)
	}
	if enc.renewal, err = json.Marshal(agg.Renewal); err != nil {
		return enc, fmt.Errorf("failed to marshal renewal: %w", err)
	}
	return enc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*contract.ContractAggregate, error) {
	var (
		agg                            contract.ContractAggregate
		phasesJSON, sigJSON, renewJSON []byte
		stagedAmount                   decimal.NullDecimal
		stagedMethod                   *string
		status                         string
	)

	err := row.Scan(
		&agg.ClientID, &agg.CoachID, &agg.StartDate, &agg.BaseDurationMonths, &phasesJSON, &agg.ContractEndDate,
		&status, &agg.PauseDate, &agg.PauseReason, &sigJSON,
		&agg.StagedDuration, &stagedAmount, &stagedMethod, &agg.StagedOfferRef,
		&renewJSON, &agg.Version, &agg.CreatedAt, &agg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	agg.Status = contract.ClientStatus(status)
	if stagedAmount.Valid {
		v := stagedAmount.Decimal
		agg.StagedAmount = &v
	}
	if stagedMethod != nil {
		agg.StagedPaymentMethod = contract.MethodPtr(contract.PaymentMethod(*stagedMethod))
	}
	if err := json.Unmarshal(phasesJSON, &agg.Phases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phases: %w", err)
	}
	if len(sigJSON) > 0 {
		if err := json.Unmarshal(sigJSON, &agg.Signature); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signature: %w", err)
		}
	}
	if len(renewJSON) > 0 {
		if err := json.Unmarshal(renewJSON, &agg.Renewal); err != nil {
			return nil, fmt.Errorf("failed to unmarshal renewal: %w", err)
		}
	}
	return &agg, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func methodString(m *contract.PaymentMethod) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}
