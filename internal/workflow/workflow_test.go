package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/events"
	"github.com/Dhoini/customer-console/internal/metrics"
	"github.com/Dhoini/customer-console/internal/notify"
	"github.com/Dhoini/customer-console/internal/remote"
	"github.com/Dhoini/customer-console/internal/remote/remotetest"
	"github.com/Dhoini/customer-console/internal/store"
	"github.com/Dhoini/customer-console/internal/validation"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/stretchr/testify/require"
)

// mutationCounter records IncMutation calls by "entity op outcome"
type mutationCounter struct {
	metrics.ConsoleMetrics
	mu     sync.Mutex
	counts map[string]int
}

func (m *mutationCounter) IncMutation(entity, op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[entity+" "+op+" "+outcome]++
}

func (m *mutationCounter) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

type harness struct {
	srv          *remotetest.Server
	customerRepo remote.Repository[domain.Customer]
	trxRepo      remote.Repository[domain.Transaction]
	customers    *store.Collection[domain.Customer]
	transactions *store.Collection[domain.Transaction]
	notes        *notify.Queue
	audit        *events.Recorder
	metrics      *mutationCounter
	deps         Deps
}

func sequence(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNop()
	srv := remotetest.New(log)
	t.Cleanup(srv.Close)

	client := remote.NewClient(srv.URL, 5*time.Second, log)
	h := &harness{
		srv:          srv,
		customerRepo: remote.NewRepository[domain.Customer](client, remote.Customers),
		trxRepo:      remote.NewRepository[domain.Transaction](client, remote.Transactions),
		notes:        notify.NewQueue(log),
		audit:        &events.Recorder{},
		metrics:      &mutationCounter{ConsoleMetrics: metrics.NewNop(), counts: map[string]int{}},
	}
	h.customers = store.NewCollection[domain.Customer]("customers", h.customerRepo, log, nil)
	h.transactions = store.NewCollection[domain.Transaction]("transactions", h.trxRepo, log, nil)
	h.deps = Deps{
		Log:           log,
		Notifications: h.notes,
		Metrics:       h.metrics,
		Events:        h.audit,
		NewID:         sequence("id"),
	}
	return h
}

// load pulls the server state into the local collections
func (h *harness) load(t *testing.T) {
	t.Helper()
	_, err := h.customers.Load(context.Background())
	require.NoError(t, err)
	_, err = h.transactions.Load(context.Background())
	require.NoError(t, err)
}

func (h *harness) form() *CustomerForm {
	return NewCustomerForm(h.customerRepo, h.customers, validation.New(), h.deps)
}

func (h *harness) customerDelete() *DeleteConfirmation[domain.Customer] {
	return NewDeleteConfirmation(h.customerRepo, h.customers, CustomerDeleteMessages, h.deps)
}

func (h *harness) transactionDelete() *DeleteConfirmation[domain.Transaction] {
	return NewDeleteConfirmation(h.trxRepo, h.transactions, TransactionDeleteMessages, h.deps)
}

func (h *harness) purchase(at time.Time) *Purchase {
	return NewPurchase(h.trxRepo, h.transactions, h.deps).WithClock(func() time.Time { return at })
}

func fill(t *testing.T, f *CustomerForm, c domain.Customer) {
	t.Helper()
	for _, field := range domain.CustomerFields {
		require.NoError(t, f.Change(field, c.Field(field)))
	}
}

var (
	ann   = domain.Customer{Name: "Ann", Phone: "08123456789", Email: "ann@x.com"}
	c1    = domain.Customer{ID: "c1", Name: "Budi", Phone: "08111111111", Email: "budi@x.com"}
	c2    = domain.Customer{ID: "c2", Name: "Citra", Phone: "08222222222", Email: "citra@x.com"}
	basic = domain.Package{ID: "p1", Name: "Basic", Description: "10 Mbps", Price: 50000}
)
