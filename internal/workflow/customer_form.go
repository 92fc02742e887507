package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/remote"
	"github.com/Dhoini/customer-console/internal/store"
	"github.com/Dhoini/customer-console/internal/validation"
)

// FormState of the customer dialog
type FormState string

const (
	FormClosed     FormState = "closed"
	FormAddOpen    FormState = "add_open"
	FormEditOpen   FormState = "edit_open"
	FormSubmitting FormState = "submitting"
)

// CustomerForm is the add / edit customer dialog
type CustomerForm struct {
	repo      remote.Repository[domain.Customer]
	customers *store.Collection[domain.Customer]
	engine    *validation.Engine
	deps      Deps

	mu     sync.Mutex
	state  FormState
	mode   FormState // open state a submit returns to
	values domain.Customer
	errs   validation.ErrorSet
	// session increases on every open and close so a late submit result
	// never closes a dialog opened after it started
	session uint64
}

// NewCustomerForm creates a closed customer dialog
func NewCustomerForm(repo remote.Repository[domain.Customer], customers *store.Collection[domain.Customer], engine *validation.Engine, deps Deps) *CustomerForm {
	return &CustomerForm{
		repo:      repo,
		customers: customers,
		engine:    engine,
		deps:      deps.withDefaults(),
		state:     FormClosed,
		errs:      validation.ErrorSet{},
	}
}

// OpenAdd opens an empty form. It fails while a submit is in flight.
func (f *CustomerForm) OpenAdd() error {
	return f.open(FormAddOpen, domain.Customer{})
}

// OpenEdit opens the form prefilled with c
func (f *CustomerForm) OpenEdit(c domain.Customer) error {
	if c.ID == "" {
		return fmt.Errorf("edit customer without id: %w", domain.ErrInvalidTransition)
	}
	return f.open(FormEditOpen, c)
}

func (f *CustomerForm) open(state FormState, values domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FormSubmitting {
		return fmt.Errorf("open %s while submitting: %w", state, domain.ErrInvalidTransition)
	}

	f.state = state
	f.mode = state
	f.values = values
	f.errs = validation.ErrorSet{}
	f.session++
	return nil
}

// Change sets one field and revalidates only that field
func (f *CustomerForm) Change(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpen() {
		return fmt.Errorf("change %s in state %s: %w", field, f.state, domain.ErrInvalidTransition)
	}

	f.values = f.values.WithField(field, value)
	f.errs = f.engine.ValidateField(f.errs, field, value)
	return nil
}

// Cancel discards the form. An in-flight submit keeps running and its
// result still reaches the collection.
func (f *CustomerForm) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == FormClosed {
		return
	}
	f.close()
}

// close resets the form; caller holds the lock
func (f *CustomerForm) close() {
	f.state = FormClosed
	f.values = domain.Customer{}
	f.errs = validation.ErrorSet{}
	f.session++
}

func (f *CustomerForm) isOpen() bool {
	return f.state == FormAddOpen || f.state == FormEditOpen
}

// Submit validates the form and, when valid, creates or updates the
// customer. Local validation failures return the error set and make no
// remote call. Remote failures leave the form open with its values.
func (f *CustomerForm) Submit(ctx context.Context) (domain.Customer, error) {
	f.mu.Lock()
	if !f.isOpen() {
		state := f.state
		f.mu.Unlock()
		return domain.Customer{}, fmt.Errorf("submit in state %s: %w", state, domain.ErrInvalidTransition)
	}

	if errs := f.engine.ValidateCustomer(f.values); errs.HasErrors() {
		f.errs = errs
		f.mu.Unlock()
		return domain.Customer{}, errs
	}

	f.errs = validation.ErrorSet{}
	f.state = FormSubmitting
	mode, values, session := f.mode, f.values, f.session
	f.mu.Unlock()

	if mode == FormAddOpen {
		values.ID = f.deps.NewID()
		return f.create(ctx, values, session)
	}
	return f.update(ctx, values, session)
}

func (f *CustomerForm) create(ctx context.Context, c domain.Customer, session uint64) (domain.Customer, error) {
	log := f.deps.Log

	stored, err := f.repo.Create(ctx, c)
	f.deps.finish(ctx, string(remote.Customers), remote.OpCreate, c.ID, err)
	if err != nil {
		log.Errorw("Failed to create customer", "id", c.ID, "error", err)
		f.reopen(session)
		f.deps.Notifications.Error(MsgSaveFailed)
		return domain.Customer{}, err
	}

	if err := f.customers.ApplyCreate(stored); err != nil {
		log.Warnw("Created customer already present locally", "id", stored.ID, "error", err)
	}
	f.done(session)
	f.deps.Notifications.Success(MsgCustomerCreated)
	log.Infow("Customer created", "id", stored.ID)

	f.deps.refetch(ctx, string(remote.Customers), f.customers)
	return stored, nil
}

func (f *CustomerForm) update(ctx context.Context, c domain.Customer, session uint64) (domain.Customer, error) {
	log := f.deps.Log

	stored, err := f.repo.Update(ctx, c.ID, c)
	f.deps.finish(ctx, string(remote.Customers), remote.OpUpdate, c.ID, err)
	if err != nil {
		log.Errorw("Failed to update customer", "id", c.ID, "error", err)
		f.reopen(session)
		f.deps.Notifications.Error(MsgSaveFailed)
		return domain.Customer{}, err
	}

	if err := f.customers.ApplyUpdate(stored); err != nil {
		log.Warnw("Updated customer missing locally", "id", stored.ID, "error", err)
	}
	f.done(session)
	f.deps.Notifications.Success(MsgCustomerUpdated)
	log.Infow("Customer updated", "id", stored.ID)

	f.deps.refetch(ctx, string(remote.Customers), f.customers)
	return stored, nil
}

// reopen returns a failed submit to its open state unless the dialog was
// closed or reopened meanwhile
func (f *CustomerForm) reopen(session uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == session && f.state == FormSubmitting {
		f.state = f.mode
	}
}

// done closes the dialog after a confirmed submit unless it was closed or
// reopened meanwhile
func (f *CustomerForm) done(session uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == session && f.state == FormSubmitting {
		f.close()
	}
}

// State returns the dialog state
func (f *CustomerForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Values returns the current form values
func (f *CustomerForm) Values() domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the inline validation errors
func (f *CustomerForm) Errors() validation.ErrorSet {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(validation.ErrorSet, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}
