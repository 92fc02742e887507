package workflow

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/metrics"
	"github.com/Dhoini/customer-console/internal/notify"
	"github.com/Dhoini/customer-console/internal/remote"
	"github.com/Dhoini/customer-console/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCustomer(t *testing.T) {
	h := newHarness(t)
	f := h.form()
	before := h.customers.Len()

	require.NoError(t, f.OpenAdd())
	assert.Equal(t, FormAddOpen, f.State())
	fill(t, f, ann)

	created, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, before+1, h.customers.Len())
	got, ok := h.customers.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)

	assert.Equal(t, notify.Notification{Message: MsgCustomerCreated, Severity: notify.Success, Visible: true}, h.notes.Current())
	assert.Equal(t, FormClosed, f.State())
	assert.Equal(t, domain.Customer{}, f.Values())

	assert.Equal(t, 1, h.metrics.count("customers create "+metrics.OutcomeSuccess))
	audit := h.audit.Events()
	require.Len(t, audit, 1)
	assert.Equal(t, "id-1", audit[0].RecordID)
	assert.Equal(t, metrics.OutcomeSuccess, audit[0].Outcome)
}

func TestInvalidCustomerIsNeverSent(t *testing.T) {
	h := newHarness(t)
	f := h.form()

	require.NoError(t, f.OpenAdd())
	fill(t, f, domain.Customer{Name: "Ann", Phone: "08123456789", Email: "bad"})

	_, err := f.Submit(context.Background())

	var errs domain.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, validation.ErrorSet{domain.FieldEmail: "Invalid email format"}, errs)
	assert.Equal(t, validation.ErrorSet{domain.FieldEmail: "Invalid email format"}, f.Errors())
	assert.Equal(t, FormAddOpen, f.State())
	assert.Zero(t, h.srv.Calls(http.MethodPost, "customers"))
	assert.Zero(t, h.customers.Len())
	assert.Zero(t, h.notes.Shown())
	assert.Empty(t, h.audit.Events())
}

func TestSubmitOfEmptyFormReportsEveryField(t *testing.T) {
	h := newHarness(t)
	f := h.form()
	require.NoError(t, f.OpenAdd())

	_, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{domain.FieldEmail, domain.FieldName, domain.FieldPhone}, f.Errors().Fields())
}

func TestChangeRevalidatesOnlyThatField(t *testing.T) {
	h := newHarness(t)
	f := h.form()
	require.NoError(t, f.OpenAdd())

	require.NoError(t, f.Change(domain.FieldEmail, "bad"))
	require.NoError(t, f.Change(domain.FieldPhone, "0812"))
	assert.Equal(t, validation.ErrorSet{
		domain.FieldEmail: "Invalid email format",
		domain.FieldPhone: "Min 10 digits",
	}, f.Errors())

	require.NoError(t, f.Change(domain.FieldEmail, "ann@x.com"))
	assert.Equal(t, validation.ErrorSet{domain.FieldPhone: "Min 10 digits"}, f.Errors())
	assert.Equal(t, "ann@x.com", f.Values().Email)
}

func TestEditCustomerKeepsPosition(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedCustomers(c1, c2)
	h.load(t)
	f := h.form()

	require.NoError(t, f.OpenEdit(c1))
	assert.Equal(t, FormEditOpen, f.State())
	assert.Equal(t, c1, f.Values())
	require.NoError(t, f.Change(domain.FieldName, "Budi Santoso"))

	updated, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c1", updated.ID)

	snapshot := h.customers.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "Budi Santoso", snapshot[0].Name)
	assert.Equal(t, c2, snapshot[1])
	assert.Equal(t, MsgCustomerUpdated, h.notes.Current().Message)
	assert.Equal(t, "Budi Santoso", h.srv.Customers()[0].Name)
}

func TestOpenEditNeedsID(t *testing.T) {
	f := newHarness(t).form()
	assert.ErrorIs(t, f.OpenEdit(domain.Customer{Name: "Nobody"}), domain.ErrInvalidTransition)
	assert.Equal(t, FormClosed, f.State())
}

func TestFailedSaveLeavesCollectionUntouched(t *testing.T) {
	tests := []struct {
		name   string
		edit   bool
		method string
		status int
		rename string
	}{
		{name: "create 5xx", method: http.MethodPost, status: http.StatusInternalServerError},
		{name: "create dropped", method: http.MethodPost, status: 0},
		{name: "update 5xx", edit: true, method: http.MethodPut, status: http.StatusBadGateway},
		{name: "update unknown id", edit: true, rename: "gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.srv.SeedCustomers(c1, c2)
			h.load(t)
			before := h.customers.Snapshot()
			f := h.form()

			if tt.edit {
				target := c1
				if tt.rename != "" {
					target.ID = tt.rename
				}
				require.NoError(t, f.OpenEdit(target))
				require.NoError(t, f.Change(domain.FieldName, "Changed"))
			} else {
				require.NoError(t, f.OpenAdd())
				fill(t, f, ann)
			}
			if tt.method != "" {
				h.srv.FailNext(tt.method, "customers", tt.status)
			}
			values := f.Values()

			_, err := f.Submit(context.Background())
			require.Error(t, err)
			assert.True(t, remote.IsRemote(err))

			assert.Equal(t, before, h.customers.Snapshot())
			assert.Equal(t, 1, h.notes.Shown())
			assert.Equal(t, notify.Notification{Message: MsgSaveFailed, Severity: notify.Error, Visible: true}, h.notes.Current())

			// back in the open state with the values kept
			want := FormAddOpen
			if tt.edit {
				want = FormEditOpen
			}
			assert.Equal(t, want, f.State())
			assert.Equal(t, values, f.Values())
		})
	}
}

func TestServerRejectionCountsAsInvalid(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedCustomers(c1)
	h.load(t)

	// force an id collision on the server
	h.deps.NewID = func() string { return "c1" }
	f := h.form()

	require.NoError(t, f.OpenAdd())
	fill(t, f, ann)
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrValidationRejected)
	assert.Equal(t, 1, h.metrics.count("customers create "+metrics.OutcomeRejected))
	assert.Equal(t, 1, h.customers.Len())
}

func TestSubmitGuards(t *testing.T) {
	h := newHarness(t)
	f := h.form()

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, f.Change(domain.FieldName, "x"), domain.ErrInvalidTransition)

	gate := h.srv.Hold(http.MethodPost, "customers")
	require.NoError(t, f.OpenAdd())
	fill(t, f, ann)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	require.True(t, gate.WaitArrived(5*time.Second))
	assert.Equal(t, FormSubmitting, f.State())

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, f.OpenAdd(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, f.Change(domain.FieldName, "x"), domain.ErrInvalidTransition)

	gate.Release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.srv.Calls(http.MethodPost, "customers"))
	assert.Equal(t, 1, h.customers.Len())
}

func TestCancelWhileSubmittingStillApplies(t *testing.T) {
	h := newHarness(t)
	f := h.form()
	gate := h.srv.Hold(http.MethodPost, "customers")

	require.NoError(t, f.OpenAdd())
	fill(t, f, ann)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	require.True(t, gate.WaitArrived(5*time.Second))

	f.Cancel()
	assert.Equal(t, FormClosed, f.State())

	// a new dialog opened meanwhile is not closed by the late result
	require.NoError(t, f.OpenAdd())
	require.NoError(t, f.Change(domain.FieldName, "Draft"))

	gate.Release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, h.customers.Len())
	assert.Len(t, h.srv.Customers(), 1)
	assert.Equal(t, MsgCustomerCreated, h.notes.Current().Message)
	assert.Equal(t, FormAddOpen, f.State())
	assert.Equal(t, "Draft", f.Values().Name)
}

func TestCancelDiscardsForm(t *testing.T) {
	h := newHarness(t)
	f := h.form()
	require.NoError(t, f.OpenAdd())
	require.NoError(t, f.Change(domain.FieldEmail, "bad"))

	f.Cancel()
	f.Cancel()

	assert.Equal(t, FormClosed, f.State())
	assert.Equal(t, domain.Customer{}, f.Values())
	assert.Empty(t, f.Errors())
	assert.Zero(t, h.srv.Calls(http.MethodPost, "customers"))
}

func TestRefetchAfterMutation(t *testing.T) {
	h := newHarness(t)
	// on the server but never loaded locally
	h.srv.SeedCustomers(c1)
	h.deps.Refetch = true
	f := h.form()

	require.NoError(t, f.OpenAdd())
	fill(t, f, ann)
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, h.customers.Len())
	_, ok := h.customers.Get("c1")
	assert.True(t, ok)
}
