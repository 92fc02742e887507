package workflow

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/metrics"
	"github.com/Dhoini/customer-console/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var purchasedAt = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestPurchase(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedCustomers(c1)
	h.srv.SeedPackages(basic)
	h.load(t)
	p := h.purchase(purchasedAt)

	require.Equal(t, domain.StatusInactive, domain.StatusOf("c1", h.transactions.Snapshot()))

	require.NoError(t, p.Start(domain.Customer{ID: "c1"}))
	assert.Equal(t, PurchaseSelecting, p.State())
	require.NoError(t, p.Choose(basic))
	assert.Equal(t, PurchasePendingConfirm, p.State())
	assert.Equal(t, "Are you sure you want to buy Basic?", p.Prompt())
	assert.Zero(t, h.srv.Calls(http.MethodPost, "transactions"))

	trx, err := p.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Transaction{
		ID:         "id-1",
		CustomerID: "c1",
		PackageID:  "p1",
		Date:       "2024-06-01T09:30:00.000Z",
		Total:      50000,
	}, trx)
	assert.Equal(t, []domain.Transaction{trx}, h.transactions.Snapshot())
	assert.Equal(t, []domain.Transaction{trx}, h.srv.Transactions())
	assert.Equal(t, domain.StatusActive, domain.StatusOf("c1", h.transactions.Snapshot()))

	assert.Equal(t, PurchaseClosed, p.State())
	customer, pkg := p.Selection()
	assert.Equal(t, domain.Customer{}, customer)
	assert.Equal(t, domain.Package{}, pkg)
	assert.Equal(t, notify.Notification{Message: "Successfully purchased Basic!", Severity: notify.Success, Visible: true}, h.notes.Current())
	assert.Equal(t, 1, h.metrics.count("transactions create "+metrics.OutcomeSuccess))
}

func TestPurchaseTotalIsPackagePrice(t *testing.T) {
	h := newHarness(t)
	p := h.purchase(purchasedAt)
	pro := domain.Package{ID: "p2", Name: "Pro", Price: 150000}

	require.NoError(t, p.Start(c2))
	require.NoError(t, p.Choose(pro))

	trx, err := p.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150000), trx.Total)
	assert.Equal(t, "c2", trx.CustomerID)
	assert.Equal(t, "Successfully purchased Pro!", h.notes.Current().Message)
}

func TestFailedPurchaseStaysOnConfirmation(t *testing.T) {
	h := newHarness(t)
	p := h.purchase(purchasedAt)

	require.NoError(t, p.Start(c1))
	require.NoError(t, p.Choose(basic))

	h.srv.FailNext(http.MethodPost, "transactions", http.StatusInternalServerError)
	_, err := p.Confirm(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)

	assert.Equal(t, PurchasePendingConfirm, p.State())
	customer, pkg := p.Selection()
	assert.Equal(t, c1, customer)
	assert.Equal(t, basic, pkg)
	assert.Zero(t, h.transactions.Len())
	assert.Empty(t, h.srv.Transactions())
	assert.Equal(t, 1, h.notes.Shown())
	assert.Equal(t, notify.Notification{Message: MsgPurchaseFailed, Severity: notify.Error, Visible: true}, h.notes.Current())

	// the user can retry by confirming again
	trx, err := p.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-2", trx.ID)
	assert.Equal(t, 1, h.transactions.Len())
}

func TestPurchaseTransitions(t *testing.T) {
	h := newHarness(t)
	p := h.purchase(purchasedAt)

	_, err := p.Confirm(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoPendingConfirmation)
	assert.ErrorIs(t, p.Choose(basic), domain.ErrInvalidTransition)
	assert.ErrorIs(t, p.Back(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, p.Start(domain.Customer{}), domain.ErrInvalidTransition)

	require.NoError(t, p.Start(c1))
	assert.ErrorIs(t, p.Start(c2), domain.ErrInvalidTransition)

	require.NoError(t, p.Choose(basic))
	require.NoError(t, p.Back())
	assert.Equal(t, PurchaseSelecting, p.State())
	_, pkg := p.Selection()
	assert.Equal(t, domain.Package{}, pkg)

	require.NoError(t, p.Cancel())
	assert.Equal(t, PurchaseClosed, p.State())
	assert.Zero(t, h.srv.Calls(http.MethodPost, "transactions"))
}

func TestPurchaseCommitGuard(t *testing.T) {
	h := newHarness(t)
	p := h.purchase(purchasedAt)
	gate := h.srv.Hold(http.MethodPost, "transactions")

	require.NoError(t, p.Start(c1))
	require.NoError(t, p.Choose(basic))

	done := make(chan error, 1)
	go func() {
		_, err := p.Confirm(context.Background())
		done <- err
	}()
	require.True(t, gate.WaitArrived(5*time.Second))

	assert.Equal(t, PurchaseCommitting, p.State())
	assert.ErrorIs(t, p.Cancel(), domain.ErrInvalidTransition)
	_, err := p.Confirm(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoPendingConfirmation)

	gate.Release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.srv.Calls(http.MethodPost, "transactions"))
	assert.Equal(t, PurchaseClosed, p.State())
}
