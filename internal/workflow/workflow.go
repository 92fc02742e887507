// Package workflow drives the console's mutation dialogs. Every mutation is
// confirmed by the record store before the local collection changes, and
// every remote failure ends as exactly one error notification.
package workflow

import (
	"context"
	"errors"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/events"
	"github.com/Dhoini/customer-console/internal/metrics"
	"github.com/Dhoini/customer-console/internal/notify"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/google/uuid"
)

// User facing messages
const (
	MsgCustomerCreated    = "Customer created successfully"
	MsgCustomerUpdated    = "Customer updated successfully"
	MsgSaveFailed         = "Failed to save data"
	MsgCustomerDeleted    = "Customer deleted"
	MsgDeleteFailed       = "Failed to delete"
	MsgTransactionDeleted = "Transaction deleted successfully"
	MsgTransactionFailed  = "Failed to delete transaction"
	MsgPurchaseFailed     = "Transaction failed"
)

// Deps are the collaborators shared by every workflow of a session
type Deps struct {
	Log           *logger.Logger
	Notifications *notify.Queue
	Metrics       metrics.ConsoleMetrics
	Events        events.Publisher
	// Refetch reloads the touched collection after a confirmed mutation
	Refetch bool
	// NewID generates client side record ids
	NewID func() string
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Notifications == nil {
		d.Notifications = notify.NewQueue(d.Log)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	if d.Events == nil {
		d.Events = events.NewNop()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// loader is the part of a collection a workflow refetches through
type loader interface {
	Load(ctx context.Context) (bool, error)
}

// finish records the outcome of a remote mutation in metrics and the audit
// trail. Local validation failures never reach it.
func (d Deps) finish(ctx context.Context, entity, op, recordID string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidationRejected):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeFailure
	}
	d.Metrics.IncMutation(entity, op, outcome)

	if pubErr := d.Events.Publish(ctx, events.NewEvent(entity, op, recordID, outcome, err)); pubErr != nil {
		d.Log.Warnw("Audit event dropped", "entity", entity, "op", op, "id", recordID, "error", pubErr)
	}
}

// refetch reloads after a confirmed mutation when configured. A failed
// refetch keeps the already applied local change.
func (d Deps) refetch(ctx context.Context, entity string, l loader) {
	if !d.Refetch {
		return
	}
	if _, err := l.Load(ctx); err != nil {
		d.Log.Warnw("Refetch after mutation failed", "entity", entity, "error", err)
	}
}
