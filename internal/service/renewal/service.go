// internal/service/renewal/service.go
package renewal

import (
	"context"
	"errors"
	"time"

	"contracts-service/internal/domain/catalog"
	"contracts-service/internal/domain/contract"
	"contracts-service/internal/domain/sale"
	wsdomain "contracts-service/internal/domain/websocket"
	xerrors "contracts-service/internal/pkg/errors"
	"contracts-service/internal/pkg/lock"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AggregateStore interface {
	Load(ctx context.Context, clientID string) (*contract.ContractAggregate, error)
	Save(ctx context.Context, agg *contract.ContractAggregate) error
}

type OfferCatalog interface {
	ListOffers(ctx context.Context) ([]catalog.Offer, error)
}

type FeeCatalog interface {
	ListPaymentMethods(ctx context.Context) ([]catalog.PaymentMethodFee, error)
}

type CoachDirectory interface {
	FindCoach(ctx context.Context, coachID string) (*catalog.Coach, error)
}

type SaleLedger interface {
	RegisterSale(ctx context.Context, rec *sale.SaleRecord) (string, error)
}

type Publisher interface {
	PublishContractEvent(event wsdomain.ContractEvent)
}

// ActivationResult is returned on success and, together with a SyncPendingError,
// when the renewal was computed but could not be stored.
type ActivationResult struct {
	Contract contract.ContractAggregate `json:"contract"`
	Sale     *sale.SaleRecord           `json:"sale,omitempty"`
	SaleID   string                     `json:"sale_id,omitempty"`
	Warning  string                     `json:"warning,omitempty"`

	// LedgerErr is set when the renewal committed but the sale could not be registered.
	LedgerErr error `json:"-"`
}

type RenewalService struct {
	store     AggregateStore
	offers    OfferCatalog
	feeTable  FeeCatalog
	coaches   CoachDirectory
	ledger    SaleLedger
	activator *Activator
	locker    lock.Locker
	events    Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewRenewalService(
	store AggregateStore,
	offers OfferCatalog,
	feeTable FeeCatalog,
	coaches CoachDirectory,
	ledger SaleLedger,
	activator *Activator,
	locker lock.Locker,
	events Publisher,
	logger *zap.Logger,
) *RenewalService {
	return &RenewalService{
		store:     store,
		offers:    offers,
		feeTable:  feeTable,
		coaches:   coaches,
		ledger:    ledger,
		activator: activator,
		locker:    locker,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// ActivateRenewal contracts the phase named by token for one client. The sale is
// registered only after the aggregate is durably saved.
func (s *RenewalService) ActivateRenewal(ctx context.Context, clientID, token string, req *contract.ActivateRenewalRequest) (*ActivationResult, error) {
	overrides, err := toOverrides(req)
	if err != nil {
		return nil, err
	}

	unlock, err := lock.AcquireContract(ctx, s.locker, clientID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	agg, err := s.store.Load(ctx, clientID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		return nil, xerrors.NewStorage("load contract", err)
	}

	var (
		offers     []catalog.Offer
		feeCatalog []catalog.PaymentMethodFee
		coachPct   = decimal.Zero
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		offers, err = s.offers.ListOffers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		feeCatalog, err = s.feeTable.ListPaymentMethods(gctx)
		return err
	})
	g.Go(func() error {
		pct, err := s.coachCommission(gctx, agg.CoachID)
		coachPct = pct
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, xerrors.NewStorage("read catalogs", err)
	}

	updated, rec, err := s.activator.Activate(*agg, Input{
		Token:                  token,
		Overrides:              overrides,
		Offers:                 offers,
		FeeCatalog:             feeCatalog,
		CoachCommissionPercent: coachPct,
		Now:                    s.now(),
	})
	if err != nil {
		return nil, err
	}
	phase, _ := contract.ParsePhaseToken(token)

	if err := s.store.Save(ctx, &updated); err != nil {
		s.logger.Error("renewal computed but not stored",
			zap.String("client_id", clientID),
			zap.String("phase", phase.String()),
			zap.Error(err),
		)
		s.publish(wsdomain.ContractEvent{
			Type:     wsdomain.EventContractSyncPending,
			ClientID: clientID,
			CoachID:  updated.CoachID,
			Phase:    int(phase),
			Message:  "renewal saved locally, re-fetch required",
		})
		return &ActivationResult{Contract: updated, Sale: rec}, &xerrors.SyncPendingError{ClientID: clientID, Err: err}
	}

	result := &ActivationResult{Contract: updated}
	if rec != nil {
		rec.ID = ulid.Make().String()
		result.Sale = rec
		saleID, err := s.ledger.RegisterSale(ctx, rec)
		if err != nil {
			result.LedgerErr = &xerrors.LedgerWriteError{Err: err}
			result.Warning = result.LedgerErr.Error()
			s.logger.Warn("renewal saved but sale not registered",
				zap.String("client_id", clientID),
				zap.String("sale_id", rec.ID),
				zap.String("gross", rec.GrossAmount.String()),
				zap.Error(err),
			)
		} else {
			result.SaleID = saleID
		}
	}

	s.logger.Info("renewal activated",
		zap.String("client_id", clientID),
		zap.String("phase", phase.String()),
		zap.Int("duration_months", *updated.Phase(phase).DurationMonths),
		zap.Bool("paid", rec != nil),
	)
	s.publish(wsdomain.ContractEvent{
		Type:            wsdomain.EventContractActivated,
		ClientID:        clientID,
		CoachID:         updated.CoachID,
		Phase:           int(phase),
		ContractEndDate: updated.ContractEndDate,
		Status:          string(updated.Status),
	})
	return result, nil
}

// coachCommission is zero when the contract has no coach or the coach is unknown.
func (s *RenewalService) coachCommission(ctx context.Context, coachID string) (decimal.Decimal, error) {
	if coachID == "" {
		return decimal.Zero, nil
	}
	coach, err := s.coaches.FindCoach(ctx, coachID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return coach.CommissionPercent, nil
}

func (s *RenewalService) publish(event wsdomain.ContractEvent) {
	if s.events != nil {
		s.events.PublishContractEvent(event)
	}
}

func toOverrides(req *contract.ActivateRenewalRequest) (Overrides, error) {
	if req == nil {
		return Overrides{}, nil
	}
	o := Overrides{
		ManualDuration: req.ManualDuration,
		ManualAmount:   req.ManualAmount,
		OfferRef:       req.OfferRef,
	}
	if req.ManualAmount != nil && req.ManualAmount.IsNegative() {
		return Overrides{}, xerrors.NewValidation("activate renewal", "manual amount cannot be negative")
	}
	if req.PaymentMethod != nil && *req.PaymentMethod != "" {
		m, err := contract.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			return Overrides{}, xerrors.NewValidation("activate renewal", err.Error())
		}
		o.PaymentMethod = &m
	}
	return o, nil
}
