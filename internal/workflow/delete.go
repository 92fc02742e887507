package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/remote"
	"github.com/Dhoini/customer-console/internal/store"
)

// DeleteState of a delete confirmation
type DeleteState string

const (
	DeleteIdle           DeleteState = "idle"
	DeletePendingConfirm DeleteState = "pending_confirm"
	DeleteDeleting       DeleteState = "deleting"
)

// DeleteMessages are the notifications of one entity's delete flow
type DeleteMessages struct {
	Prompt  string
	Success string
	Failure string
}

// CustomerDeleteMessages are used on the customer page
var CustomerDeleteMessages = DeleteMessages{
	Prompt:  "Are you sure you want to delete this customer?",
	Success: MsgCustomerDeleted,
	Failure: MsgDeleteFailed,
}

// TransactionDeleteMessages are used on the transaction page
var TransactionDeleteMessages = DeleteMessages{
	Prompt:  "Are you sure you want to delete this transaction history? This action cannot be undone.",
	Success: MsgTransactionDeleted,
	Failure: MsgTransactionFailed,
}

// DeleteConfirmation is the two step delete prompt. The id to delete is
// captured when the prompt opens and Confirm only ever deletes that id.
type DeleteConfirmation[T domain.Record] struct {
	entity     string
	repo       remote.Repository[T]
	collection *store.Collection[T]
	messages   DeleteMessages
	deps       Deps

	mu     sync.Mutex
	state  DeleteState
	target string
}

// NewDeleteConfirmation creates an idle prompt for collection
func NewDeleteConfirmation[T domain.Record](repo remote.Repository[T], collection *store.Collection[T], messages DeleteMessages, deps Deps) *DeleteConfirmation[T] {
	return &DeleteConfirmation[T]{
		entity:     collection.Entity(),
		repo:       repo,
		collection: collection,
		messages:   messages,
		deps:       deps.withDefaults(),
		state:      DeleteIdle,
	}
}

// Open asks for confirmation to delete id
func (d *DeleteConfirmation[T]) Open(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id == "" {
		return fmt.Errorf("delete %s without id: %w", d.entity, domain.ErrInvalidTransition)
	}
	if d.state != DeleteIdle {
		return fmt.Errorf("open delete of %s in state %s: %w", id, d.state, domain.ErrInvalidTransition)
	}

	d.state = DeletePendingConfirm
	d.target = id
	return nil
}

// Cancel closes the prompt without deleting
func (d *DeleteConfirmation[T]) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case DeleteIdle:
		return nil
	case DeleteDeleting:
		return fmt.Errorf("cancel while deleting %s: %w", d.target, domain.ErrInvalidTransition)
	}

	d.state = DeleteIdle
	d.target = ""
	return nil
}

// Confirm deletes the captured id. The prompt closes whatever the outcome;
// on failure the collection is untouched and one error notification shows.
func (d *DeleteConfirmation[T]) Confirm(ctx context.Context) error {
	d.mu.Lock()
	if d.state != DeletePendingConfirm {
		state := d.state
		d.mu.Unlock()
		return fmt.Errorf("confirm delete in state %s: %w", state, domain.ErrNoPendingConfirmation)
	}
	d.state = DeleteDeleting
	id := d.target
	d.mu.Unlock()

	err := d.repo.Delete(ctx, id)
	d.deps.finish(ctx, d.entity, remote.OpDelete, id, err)
	if err != nil {
		d.reset()
		d.deps.Log.Errorw("Failed to delete record", "entity", d.entity, "id", id, "error", err)
		d.deps.Notifications.Error(d.messages.Failure)
		return err
	}

	if err := d.collection.ApplyRemove(id); err != nil {
		d.deps.Log.Warnw("Deleted record missing locally", "entity", d.entity, "id", id, "error", err)
	}
	d.reset()
	d.deps.Notifications.Success(d.messages.Success)
	d.deps.Log.Infow("Record deleted", "entity", d.entity, "id", id)

	d.deps.refetch(ctx, d.entity, d.collection)
	return nil
}

func (d *DeleteConfirmation[T]) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = DeleteIdle
	d.target = ""
}

// State returns the prompt state
func (d *DeleteConfirmation[T]) State() DeleteState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Target returns the captured id while a confirmation is pending or running
func (d *DeleteConfirmation[T]) Target() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target, d.state != DeleteIdle
}

// Prompt is the question shown while confirmation is pending
func (d *DeleteConfirmation[T]) Prompt() string {
	return d.messages.Prompt
}
