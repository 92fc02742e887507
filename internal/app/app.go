package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/customer-console/internal/auth"
	"github.com/Dhoini/customer-console/internal/config"
	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/events"
	"github.com/Dhoini/customer-console/internal/metrics"
	"github.com/Dhoini/customer-console/internal/notify"
	"github.com/Dhoini/customer-console/internal/remote"
	"github.com/Dhoini/customer-console/internal/store"
	"github.com/Dhoini/customer-console/internal/validation"
	"github.com/Dhoini/customer-console/internal/view"
	"github.com/Dhoini/customer-console/internal/workflow"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// MsgLoadFailed is shown when a refresh could not load every collection
const MsgLoadFailed = "Failed to load data"

// App holds everything one console session works with
type App struct {
	Config        *config.Config
	Logger        *logger.Logger
	Client        *remote.Client
	Customers     *store.Collection[domain.Customer]
	Packages      *store.Collection[domain.Package]
	Transactions  *store.Collection[domain.Transaction]
	Notifications *notify.Queue
	Metrics       metrics.ConsoleMetrics
	Events        events.Publisher
	Auth          *auth.Authenticator
	Validator     *validation.Engine

	customerRepo    remote.Repository[domain.Customer]
	transactionRepo remote.Repository[domain.Transaction]
	markers         auth.MarkerStore
	viewOpts        view.Options
	deps            workflow.Deps
}

type options struct {
	registry   prometheus.Registerer
	publisher  events.Publisher
	markers    auth.MarkerStore
	clientOpts []remote.Option
	newID      func() string
}

// Option customizes New
type Option func(*options)

// WithRegistry registers metrics on r instead of a private registry
func WithRegistry(r prometheus.Registerer) Option {
	return func(o *options) { o.registry = r }
}

// WithPublisher replaces the configured audit publisher
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithMarkerStore replaces the configured session marker store
func WithMarkerStore(m auth.MarkerStore) Option {
	return func(o *options) { o.markers = m }
}

// WithClientOptions passes options to the record store client
func WithClientOptions(opts ...remote.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithIDGenerator replaces the uuid generator used for new records
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// New wires a console session from cfg
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	o := options{registry: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(&o)
	}

	m := metrics.NewConsoleMetrics(o.registry, cfg.Metrics.Namespace, log)

	publisher := o.publisher
	if publisher == nil {
		publisher = events.NewNop()
		if cfg.Events.Enabled {
			p, err := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, log.Named("events"))
			if err != nil {
				return nil, fmt.Errorf("create event publisher: %w", err)
			}
			publisher = p
		}
	}

	markers := o.markers
	if markers == nil {
		switch cfg.Session.Store {
		case "redis":
			r, err := auth.NewRedisStore(cfg.Session.Addr, cfg.Session.Password, cfg.Session.DB, log.Named("session"))
			if err != nil {
				_ = publisher.Close()
				return nil, fmt.Errorf("create session store: %w", err)
			}
			markers = r
		default:
			markers = auth.NewMemoryStore()
		}
	}

	clientOpts := append([]remote.Option{remote.WithMetrics(m)}, o.clientOpts...)
	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, log.Named("remote"), clientOpts...)

	customerRepo := remote.NewRepository[domain.Customer](client, remote.Customers)
	packageRepo := remote.NewRepository[domain.Package](client, remote.Packages)
	transactionRepo := remote.NewRepository[domain.Transaction](client, remote.Transactions)

	storeLog := log.Named("store")
	notifications := notify.NewQueue(log.Named("notify"))

	a := &App{
		Config:        cfg,
		Logger:        log,
		Client:        client,
		Customers:     store.NewCollection[domain.Customer](string(remote.Customers), customerRepo, storeLog, m),
		Packages:      store.NewCollection[domain.Package](string(remote.Packages), packageRepo, storeLog, m),
		Transactions:  store.NewCollection[domain.Transaction](string(remote.Transactions), transactionRepo, storeLog, m),
		Notifications: notifications,
		Metrics:       m,
		Events:        publisher,
		Auth:          auth.NewAuthenticator(client, markers, cfg.Session.TTL, log.Named("auth")),
		Validator:     validation.New(),

		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		markers:         markers,
		viewOpts:        view.Options{Locale: view.ParseLocale(cfg.View.Locale)},
		deps: workflow.Deps{
			Log:           log.Named("workflow"),
			Notifications: notifications,
			Metrics:       m,
			Events:        publisher,
			Refetch:       cfg.Workflow.RefetchAfterMutation,
			NewID:         o.newID,
		},
	}

	log.Infow("Console session ready", "remote", cfg.Remote.BaseURL, "session_store", cfg.Session.Store, "events", cfg.Events.Enabled)
	return a, nil
}

// Refresh reloads every collection concurrently. Collections that loaded
// keep their new contents; any failure shows one error notification.
func (a *App) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.load(ctx, a.Customers) })
	g.Go(func() error { return a.load(ctx, a.Packages) })
	g.Go(func() error { return a.load(ctx, a.Transactions) })

	if err := g.Wait(); err != nil {
		a.Logger.Errorw("Refresh failed", "error", err)
		a.Notifications.Error(MsgLoadFailed)
		return err
	}
	return nil
}

func (a *App) load(ctx context.Context, l interface {
	Load(context.Context) (bool, error)
}) error {
	_, err := l.Load(ctx)
	return err
}

// CustomerRows derives the customer list from the latest snapshots
func (a *App) CustomerRows(state view.FilterState) []view.CustomerRow {
	return view.CustomerRows(a.Customers.Snapshot(), a.Transactions.Snapshot(), state, a.viewOpts)
}

// CustomerPage is CustomerRows cut to the requested page
func (a *App) CustomerPage(state view.FilterState) view.Page[view.CustomerRow] {
	return view.Paginate(a.CustomerRows(state), state.Page, a.pageSize(state))
}

// TransactionRows derives the transaction list from the latest snapshots
func (a *App) TransactionRows(state view.FilterState) []view.TransactionRow {
	return view.TransactionRows(a.Transactions.Snapshot(), a.Customers.Snapshot(), a.Packages.Snapshot(), state, a.viewOpts)
}

// TransactionPage is TransactionRows cut to the requested page
func (a *App) TransactionPage(state view.FilterState) view.Page[view.TransactionRow] {
	return view.Paginate(a.TransactionRows(state), state.Page, a.pageSize(state))
}

func (a *App) pageSize(state view.FilterState) int {
	if state.PageSize > 0 {
		return state.PageSize
	}
	return a.Config.View.PageSize
}

// Status derives the status of one customer
func (a *App) Status(customerID string) domain.CustomerStatus {
	return domain.StatusOf(customerID, a.Transactions.Snapshot())
}

// PackageList returns the packages on sale
func (a *App) PackageList() []domain.Package {
	return a.Packages.Snapshot()
}

// CustomerForm opens a new add / edit dialog controller
func (a *App) CustomerForm() *workflow.CustomerForm {
	return workflow.NewCustomerForm(a.customerRepo, a.Customers, a.Validator, a.deps)
}

// CustomerDelete creates the customer delete prompt
func (a *App) CustomerDelete() *workflow.DeleteConfirmation[domain.Customer] {
	return workflow.NewDeleteConfirmation(a.customerRepo, a.Customers, workflow.CustomerDeleteMessages, a.deps)
}

// TransactionDelete creates the transaction delete prompt
func (a *App) TransactionDelete() *workflow.DeleteConfirmation[domain.Transaction] {
	return workflow.NewDeleteConfirmation(a.transactionRepo, a.Transactions, workflow.TransactionDeleteMessages, a.deps)
}

// Purchase creates the purchase dialogs
func (a *App) Purchase() *workflow.Purchase {
	return workflow.NewPurchase(a.transactionRepo, a.Transactions, a.deps)
}

// Close releases the audit publisher and the session store
func (a *App) Close() error {
	return errors.Join(a.Events.Close(), a.markers.Close())
}
