// internal/service/contract/service.go
package contract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"contracts-service/internal/domain/contract"
	wsdomain "contracts-service/internal/domain/websocket"
	"contracts-service/internal/pkg/dates"
	xerrors "contracts-service/internal/pkg/errors"
	"contracts-service/internal/pkg/lock"
	"contracts-service/internal/service/schedule"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minExpiringDays     = 1
	maxExpiringDays     = 90
	defaultExpiringDays = 30
)

type AggregateStore interface {
	Create(ctx context.Context, agg *contract.ContractAggregate) error
	Load(ctx context.Context, clientID string) (*contract.ContractAggregate, error)
	Save(ctx context.Context, agg *contract.ContractAggregate) error
	ListExpiring(ctx context.Context, from, to time.Time) ([]contract.ContractAggregate, error)
}

type Publisher interface {
	PublishContractEvent(event wsdomain.ContractEvent)
}

type ContractService struct {
	store  AggregateStore
	locker lock.Locker
	events Publisher
	logger *zap.Logger
	now    func() time.Time
}

func NewContractService(store AggregateStore, locker lock.Locker, events Publisher, logger *zap.Logger) *ContractService {
	return &ContractService{
		store:  store,
		locker: locker,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// CreateContract opens a contract with empty phase placeholders.
func (s *ContractService) CreateContract(ctx context.Context, req *contract.CreateContractRequest) (*contract.ContractAggregate, error) {
	if _, err := uuid.Parse(req.ClientID); err != nil {
		return nil, xerrors.NewValidation("create contract", "client_id must be a UUID")
	}
	if req.BaseDurationMonths <= 0 {
		return nil, xerrors.NewValidation("create contract", "base_duration_months must be positive")
	}
	if req.StartDate.IsZero() {
		return nil, xerrors.NewValidation("create contract", "start_date is required")
	}

	agg := schedule.Recompute(contract.NewAggregate(req.ClientID, strings.TrimSpace(req.CoachID), req.StartDate, req.BaseDurationMonths))
	if err := s.store.Create(ctx, &agg); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, fmt.Errorf("%w: client %s already has a contract", xerrors.ErrConflict, req.ClientID)
		}
		return nil, xerrors.NewStorage("create contract", err)
	}

	s.logger.Info("contract created",
		zap.String("client_id", agg.ClientID),
		zap.Int("base_duration_months", agg.BaseDurationMonths),
	)
	s.publishUpdated(&agg, "created")
	return &agg, nil
}

func (s *ContractService) GetContract(ctx context.Context, clientID string) (*contract.ContractAggregate, error) {
	agg, err := s.store.Load(ctx, clientID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		return nil, xerrors.NewStorage("load contract", err)
	}
	return agg, nil
}

// UpdateSchedule edits the inputs of the cascade and recomputes every derived date.
func (s *ContractService) UpdateSchedule(ctx context.Context, clientID string, req *contract.UpdateScheduleRequest) (*contract.ContractAggregate, error) {
	if req.BaseDurationMonths != nil && *req.BaseDurationMonths <= 0 {
		return nil, xerrors.NewValidation("update schedule", "base_duration_months must be positive")
	}
	for _, p := range req.Phases {
		if p.Phase < 2 || !p.Phase.Valid() {
			return nil, xerrors.NewValidation("update schedule", fmt.Sprintf("phase %d cannot be edited", p.Phase))
		}
		if p.DurationMonths != nil && *p.DurationMonths <= 0 {
			return nil, xerrors.NewValidation("update schedule", fmt.Sprintf("%s duration must be positive", p.Phase))
		}
	}

	return s.mutate(ctx, clientID, "update schedule", func(agg *contract.ContractAggregate) error {
		if req.StartDate != nil {
			agg.StartDate = dates.Ptr(*req.StartDate)
		}
		if req.BaseDurationMonths != nil {
			agg.BaseDurationMonths = *req.BaseDurationMonths
		}
		for _, in := range req.Phases {
			p := agg.Phase(in.Phase)
			if in.DurationMonths != nil {
				if p.Contracted {
					return xerrors.NewValidation("update schedule", fmt.Sprintf("%s is contracted, its duration is fixed", in.Phase))
				}
				d := *in.DurationMonths
				p.DurationMonths = &d
			}
			if in.ServiceName != nil {
				name := strings.TrimSpace(*in.ServiceName)
				p.ServiceName = &name
			}
		}
		return nil
	})
}

// StageRenewal records what staff intend to sell before the renewal is activated.
func (s *ContractService) StageRenewal(ctx context.Context, clientID string, req *contract.StageRenewalRequest) (*contract.ContractAggregate, error) {
	var method *contract.PaymentMethod
	if req.PaymentMethod != nil && *req.PaymentMethod != "" {
		m, err := contract.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			return nil, xerrors.NewValidation("stage renewal", err.Error())
		}
		method = &m
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		return nil, xerrors.NewValidation("stage renewal", "amount cannot be negative")
	}

	return s.mutate(ctx, clientID, "stage renewal", func(agg *contract.ContractAggregate) error {
		if agg.Renewal.NextPhase == 0 {
			return xerrors.NewValidation("stage renewal", "every phase is already contracted")
		}
		agg.StagedDuration = req.DurationMonths
		agg.StagedAmount = req.Amount
		agg.StagedPaymentMethod = method
		agg.StagedOfferRef = req.OfferRef
		agg.Renewal.PaymentStatus = contract.RenewalPaymentPending
		agg.Renewal.VerifiedAt = nil
		return nil
	})
}

// AttachReceipt stores the reference of an uploaded payment receipt.
func (s *ContractService) AttachReceipt(ctx context.Context, clientID, receiptRef string) (*contract.ContractAggregate, error) {
	ref := strings.TrimSpace(receiptRef)
	if ref == "" {
		return nil, xerrors.NewValidation("attach receipt", "receipt_ref is required")
	}
	return s.mutate(ctx, clientID, "attach receipt", func(agg *contract.ContractAggregate) error {
		agg.Renewal.ReceiptRef = &ref
		agg.Renewal.PaymentStatus = contract.RenewalPaymentUploaded
		return nil
	})
}

func (s *ContractService) SignContract(ctx context.Context, clientID, imageRef string) (*contract.ContractAggregate, error) {
	ref := strings.TrimSpace(imageRef)
	if ref == "" {
		return nil, xerrors.NewValidation("sign contract", "image_ref is required")
	}
	return s.mutate(ctx, clientID, "sign contract", func(agg *contract.ContractAggregate) error {
		signedAt := s.now()
		agg.Signature = contract.Signature{Signed: true, SignedAt: &signedAt, ImageRef: &ref}
		return nil
	})
}

// ListExpiring returns contracts ending within the next days (clamped to 1..90)
// whose next phase has not been contracted yet, soonest first.
func (s *ContractService) ListExpiring(ctx context.Context, days int) ([]contract.ExpiringContract, error) {
	switch {
	case days == 0:
		days = defaultExpiringDays
	case days < minExpiringDays:
		days = minExpiringDays
	case days > maxExpiringDays:
		days = maxExpiringDays
	}

	today := dates.Normalize(s.now())
	aggs, err := s.store.ListExpiring(ctx, today, dates.AddDays(today, days))
	if err != nil {
		return nil, xerrors.NewStorage("list expiring contracts", err)
	}

	out := make([]contract.ExpiringContract, 0, len(aggs))
	for _, agg := range aggs {
		if agg.ContractEndDate == nil {
			continue
		}
		next := agg.Renewal.NextPhase
		if next != 0 && agg.Phase(next).Contracted {
			continue
		}
		out = append(out, contract.ExpiringContract{
			ClientID:        agg.ClientID,
			CoachID:         agg.CoachID,
			ActivePhase:     schedule.ActivePhase(agg),
			NextPhase:       next,
			ContractEndDate: *agg.ContractEndDate,
			DaysRemaining:   dates.DaysUntil(today, *agg.ContractEndDate),
			Status:          agg.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ContractEndDate.Before(out[j].ContractEndDate)
	})
	return out, nil
}

// mutate runs fn on a copy of the stored aggregate under the client lock, recomputes
// the cascade and saves. Nothing is stored when fn fails.
func (s *ContractService) mutate(ctx context.Context, clientID, op string, fn func(*contract.ContractAggregate) error) (*contract.ContractAggregate, error) {
	unlock, err := lock.AcquireContract(ctx, s.locker, clientID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.GetContract(ctx, clientID)
	if err != nil {
		return nil, err
	}

	work := current.Clone()
	if err := fn(&work); err != nil {
		return nil, err
	}
	updated := schedule.Recompute(work)
	if err := schedule.CheckCascade(updated); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, &updated); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, err
		}
		return nil, xerrors.NewStorage(op, err)
	}

	s.logger.Info("contract updated", zap.String("client_id", clientID), zap.String("op", op))
	s.publishUpdated(&updated, op)
	return &updated, nil
}

func (s *ContractService) publishUpdated(agg *contract.ContractAggregate, op string) {
	if s.events == nil {
		return
	}
	s.events.PublishContractEvent(wsdomain.ContractEvent{
		Type:            wsdomain.EventContractUpdated,
		ClientID:        agg.ClientID,
		CoachID:         agg.CoachID,
		ContractEndDate: agg.ContractEndDate,
		Status:          string(agg.Status),
		Message:         op,
	})
}
