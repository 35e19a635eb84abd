// internal/service/pause/service.go
package pause

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"contracts-service/internal/domain/contract"
	pausedomain "contracts-service/internal/domain/pause"
	wsdomain "contracts-service/internal/domain/websocket"
	"contracts-service/internal/pkg/dates"
	xerrors "contracts-service/internal/pkg/errors"
	"contracts-service/internal/pkg/lock"
	"contracts-service/internal/service/schedule"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type AggregateStore interface {
	Load(ctx context.Context, clientID string) (*contract.ContractAggregate, error)
	Save(ctx context.Context, agg *contract.ContractAggregate) error
}

// IntervalStore persists pause intervals. FindOpenByClient returns xerrors.ErrNotFound
// when the client has no open interval; Close only closes an interval that is still
// open and returns xerrors.ErrConflict otherwise.
type IntervalStore interface {
	Insert(ctx context.Context, p *pausedomain.PauseInterval) error
	FindOpenByClient(ctx context.Context, clientID string) (*pausedomain.PauseInterval, error)
	Close(ctx context.Context, id string, endDate time.Time, days int) error
	Reopen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListByClient(ctx context.Context, clientID string) ([]pausedomain.PauseInterval, error)
}

type Publisher interface {
	PublishContractEvent(event wsdomain.ContractEvent)
}

// ElapsedDays counts the civil days between the pause date and the resume day.
// Time of day on either end is ignored.
func ElapsedDays(start, end time.Time) int {
	return dates.CeilDays(dates.Normalize(start), dates.Normalize(end))
}

func ExtendEndDate(end time.Time, days int) time.Time {
	return dates.AddDays(end, days)
}

type PauseService struct {
	store     AggregateStore
	intervals IntervalStore
	locker    lock.Locker
	events    Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewPauseService(store AggregateStore, intervals IntervalStore, locker lock.Locker, events Publisher, logger *zap.Logger) *PauseService {
	return &PauseService{
		store:     store,
		intervals: intervals,
		locker:    locker,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// StartPause freezes the contract clock from req.PauseDate.
func (s *PauseService) StartPause(ctx context.Context, clientID, actor string, req *pausedomain.StartPauseRequest) (*contract.ContractAggregate, error) {
	if req == nil || strings.TrimSpace(req.Reason) == "" {
		return nil, xerrors.NewValidation("start pause", "reason is required")
	}
	if req.PauseDate == nil || req.PauseDate.IsZero() {
		return nil, xerrors.NewValidation("start pause", "pause date is required")
	}
	reason := strings.TrimSpace(req.Reason)

	unlock, err := lock.AcquireContract(ctx, s.locker, clientID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	agg, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	open, err := s.intervals.FindOpenByClient(ctx, clientID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.NewStorage("find open pause", err)
	}
	if open != nil {
		return nil, fmt.Errorf("%w: client %s already has an open pause since %s",
			xerrors.ErrConflict, clientID, open.StartDate.Format(time.DateOnly))
	}

	pauseDate := dates.Normalize(*req.PauseDate)
	interval := &pausedomain.PauseInterval{
		ID:        ulid.Make().String(),
		ClientID:  clientID,
		StartDate: pauseDate,
		Reason:    reason,
		CreatedBy: actor,
	}
	if err := s.intervals.Insert(ctx, interval); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return nil, err
		}
		return nil, xerrors.NewStorage("insert pause", err)
	}

	updated := agg.Clone()
	updated.Status = contract.StatusPaused
	updated.PauseDate = &pauseDate
	updated.PauseReason = &reason

	if err := s.store.Save(ctx, &updated); err != nil {
		if derr := s.intervals.Delete(ctx, interval.ID); derr != nil {
			s.logger.Error("failed to roll back pause interval",
				zap.String("client_id", clientID),
				zap.String("pause_id", interval.ID),
				zap.Error(derr),
			)
		}
		return nil, xerrors.NewStorage("save paused contract", err)
	}

	s.logger.Info("contract paused",
		zap.String("client_id", clientID),
		zap.String("pause_id", interval.ID),
		zap.String("actor", actor),
	)
	s.publish(wsdomain.ContractEvent{
		Type:            wsdomain.EventContractPaused,
		ClientID:        clientID,
		CoachID:         updated.CoachID,
		ContractEndDate: updated.ContractEndDate,
		Status:          string(updated.Status),
		Message:         reason,
	})
	return &updated, nil
}

// EndPause closes the client's open pause and extends the contract by the elapsed days.
// With no open pause the client is simply reactivated and 0 is returned.
func (s *PauseService) EndPause(ctx context.Context, clientID string) (int, *contract.ContractAggregate, error) {
	unlock, err := lock.AcquireContract(ctx, s.locker, clientID)
	if err != nil {
		return 0, nil, err
	}
	defer unlock()

	agg, err := s.load(ctx, clientID)
	if err != nil {
		return 0, nil, err
	}

	open, err := s.intervals.FindOpenByClient(ctx, clientID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return 0, nil, xerrors.NewStorage("find open pause", err)
	}

	if open == nil {
		updated := agg.Clone()
		resume(&updated)
		if err := s.store.Save(ctx, &updated); err != nil {
			return 0, nil, xerrors.NewStorage("save resumed contract", err)
		}
		s.logger.Warn("resume without open pause, no date shift", zap.String("client_id", clientID))
		s.publishResumed(&updated, 0)
		return 0, &updated, nil
	}

	today := dates.Normalize(s.now())
	days := ElapsedDays(open.StartDate, today)
	if err := s.intervals.Close(ctx, open.ID, today, days); err != nil {
		if errors.Is(err, xerrors.ErrConflict) {
			return 0, nil, err
		}
		return 0, nil, xerrors.NewStorage("close pause", err)
	}

	updated := agg.Clone()
	active := schedule.ActivePhase(updated)
	updated.Phase(active).PauseExtensionDays += days
	updated = schedule.Recompute(updated)
	resume(&updated)

	if agg.ContractEndDate != nil && updated.ContractEndDate != nil {
		if want := ExtendEndDate(*agg.ContractEndDate, days); !want.Equal(*updated.ContractEndDate) {
			s.logger.Warn("contract end date drifted from stored value",
				zap.String("client_id", clientID),
				zap.Time("expected", want),
				zap.Time("recomputed", *updated.ContractEndDate),
			)
		}
	}

	if err := s.store.Save(ctx, &updated); err != nil {
		if rerr := s.intervals.Reopen(ctx, open.ID); rerr != nil {
			s.logger.Error("failed to reopen pause after save failure",
				zap.String("client_id", clientID),
				zap.String("pause_id", open.ID),
				zap.Error(rerr),
			)
		}
		return 0, nil, xerrors.NewStorage("save resumed contract", err)
	}

	s.logger.Info("contract resumed",
		zap.String("client_id", clientID),
		zap.String("pause_id", open.ID),
		zap.Int("days", days),
		zap.String("phase", active.String()),
	)
	s.publishResumed(&updated, days)
	return days, &updated, nil
}

// GetPauseHistory lists the client's intervals, newest first.
func (s *PauseService) GetPauseHistory(ctx context.Context, clientID string) ([]pausedomain.PauseInterval, error) {
	items, err := s.intervals.ListByClient(ctx, clientID)
	if err != nil {
		return nil, xerrors.NewStorage("list pauses", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartDate.After(items[j].StartDate)
	})
	return items, nil
}

func (s *PauseService) load(ctx context.Context, clientID string) (*contract.ContractAggregate, error) {
	agg, err := s.store.Load(ctx, clientID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		return nil, xerrors.NewStorage("load contract", err)
	}
	return agg, nil
}

func (s *PauseService) publishResumed(agg *contract.ContractAggregate, days int) {
	s.publish(wsdomain.ContractEvent{
		Type:            wsdomain.EventContractResumed,
		ClientID:        agg.ClientID,
		CoachID:         agg.CoachID,
		ContractEndDate: agg.ContractEndDate,
		Status:          string(agg.Status),
		DaysElapsed:     days,
	})
}

func (s *PauseService) publish(event wsdomain.ContractEvent) {
	if s.events != nil {
		s.events.PublishContractEvent(event)
	}
}

func resume(agg *contract.ContractAggregate) {
	agg.Status = contract.StatusActive
	agg.PauseDate = nil
	agg.PauseReason = nil
}
