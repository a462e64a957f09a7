package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
	apperrors "github.com/maisonvera/concierge/pkg/errors"
	"github.com/maisonvera/concierge/pkg/retry"
)

// ActionDispatcher maps each action type to exactly one collaborator call.
// Every call is bounded by a timeout and failures come back as typed
// values, never as raw panics or hangs. Idempotent reads are retried once;
// mutating calls never are.
type ActionDispatcher struct {
	orders    providers.OrderProvider
	returns   providers.ReturnsProvider
	ticketing providers.TicketingProvider
	capsules  providers.CapsuleStore
	csat      providers.CSATProvider
	timeout   time.Duration
	metrics   *observability.Metrics
}

// NewActionDispatcher creates a dispatcher over the collaborator set.
// metrics may be nil.
func NewActionDispatcher(
	orders providers.OrderProvider,
	returns providers.ReturnsProvider,
	ticketing providers.TicketingProvider,
	capsules providers.CapsuleStore,
	csat providers.CSATProvider,
	timeout time.Duration,
	metrics *observability.Metrics,
) *ActionDispatcher {
	return &ActionDispatcher{
		orders:    orders,
		returns:   returns,
		ticketing: ticketing,
		capsules:  capsules,
		csat:      csat,
		timeout:   timeout,
		metrics:   metrics,
	}
}

// Dispatch executes one action against its collaborator.
func (d *ActionDispatcher) Dispatch(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	start := time.Now()
	result, err := d.dispatch(ctx, action)
	if d.metrics != nil {
		observability.RecordDispatchMetric(ctx, d.metrics, string(action.Type), time.Since(start))
	}
	return result, err
}

func (d *ActionDispatcher) dispatch(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	switch action.Type {
	case entities.ActionLookupOrder:
		return d.lookupOrder(ctx, action)
	case entities.ActionCreateReturn:
		return d.createReturn(ctx, action)
	case entities.ActionReserveCapsule:
		return d.reserveCapsule(ctx, action)
	case entities.ActionCreateStylistTicket:
		return d.createTicket(ctx, action)
	case entities.ActionRecordCSAT:
		return d.recordCSAT(ctx, action)
	case entities.ActionSubscribeOrderUpdates:
		return d.subscribeUpdates(ctx, action)
	default:
		return nil, apperrors.NewStateInvariantError(fmt.Sprintf("no collaborator for action type %q", action.Type))
	}
}

// lookupOrder is the only read; it gets a single retry on transient errors.
// A not-found answer is definitive and never retried.
func (d *ActionDispatcher) lookupOrder(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	var status *entities.OrderStatus
	var notFound error

	err := retry.Do(ctx, retry.ReadConfig(), func() error {
		callCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		res, err := d.orders.Lookup(callCtx, providers.OrderLookup{
			OrderID: action.OrderID,
			Email:   action.Email,
			Zip:     action.Zip,
		})
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				notFound = err
				return nil
			}
			return err
		}
		status = res
		return nil
	})
	if err != nil {
		return nil, d.asExternal("order lookup failed", err)
	}
	if notFound != nil {
		return nil, notFound
	}
	return &entities.ActionResult{Type: entities.ActionLookupOrder, Order: status}, nil
}

func (d *ActionDispatcher) createReturn(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.returns.CreateReturn(callCtx, providers.ReturnRequest{
		OrderID: action.OrderID,
		Reason:  action.Reason,
	})
	if err != nil {
		return nil, d.asExternal("return creation failed", err)
	}
	return &entities.ActionResult{Type: entities.ActionCreateReturn, Return: res}, nil
}

func (d *ActionDispatcher) reserveCapsule(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.capsules.Reserve(callCtx, providers.CapsuleRequest{
		SessionID: action.SessionID,
		ItemIDs:   action.ItemIDs,
	})
	if err != nil {
		return nil, d.asExternal("capsule reservation failed", err)
	}
	return &entities.ActionResult{Type: entities.ActionReserveCapsule, Capsule: res}, nil
}

func (d *ActionDispatcher) createTicket(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.ticketing.CreateTicket(callCtx, providers.TicketRequest{
		Name:    action.Name,
		Email:   action.Email,
		Phone:   action.Phone,
		Context: action.Context,
	})
	if err != nil {
		return nil, d.asExternal("stylist ticket creation failed", err)
	}
	return &entities.ActionResult{Type: entities.ActionCreateStylistTicket, Ticket: res}, nil
}

func (d *ActionDispatcher) recordCSAT(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.csat.Record(callCtx, providers.CSATRecord{
		SessionID: action.SessionID,
		Rating:    action.Rating,
		Comment:   action.Comment,
	})
	if err != nil {
		return nil, d.asExternal("csat recording failed", err)
	}
	return &entities.ActionResult{Type: entities.ActionRecordCSAT, Recorded: true}, nil
}

func (d *ActionDispatcher) subscribeUpdates(ctx context.Context, action entities.Action) (*entities.ActionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.orders.SubscribeUpdates(callCtx, action.OrderID, action.SessionID); err != nil {
		return nil, d.asExternal("order update subscription failed", err)
	}
	return &entities.ActionResult{Type: entities.ActionSubscribeOrderUpdates, Subscribed: true}, nil
}

// asExternal converts collaborator errors into typed values. AppErrors
// pass through; deadline and transport errors become EXTERNAL.
func (d *ActionDispatcher) asExternal(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewExternalError(message+": collaborator timed out", err)
	}
	return apperrors.NewExternalError(message, err)
}
