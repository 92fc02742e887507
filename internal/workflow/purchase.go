package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/remote"
	"github.com/Dhoini/customer-console/internal/store"
)

// PurchaseState of the purchase dialogs
type PurchaseState string

const (
	PurchaseClosed         PurchaseState = "closed"
	PurchaseSelecting      PurchaseState = "selecting"
	PurchasePendingConfirm PurchaseState = "pending_confirm"
	PurchaseCommitting     PurchaseState = "committing"
)

// Purchase sells a package to a customer: pick a package, confirm, commit.
type Purchase struct {
	repo         remote.Repository[domain.Transaction]
	transactions *store.Collection[domain.Transaction]
	deps         Deps
	now          func() time.Time

	mu       sync.Mutex
	state    PurchaseState
	customer domain.Customer
	pkg      domain.Package
}

// NewPurchase creates closed purchase dialogs
func NewPurchase(repo remote.Repository[domain.Transaction], transactions *store.Collection[domain.Transaction], deps Deps) *Purchase {
	return &Purchase{
		repo:         repo,
		transactions: transactions,
		deps:         deps.withDefaults(),
		now:          time.Now,
		state:        PurchaseClosed,
	}
}

// WithClock replaces the purchase time source
func (p *Purchase) WithClock(now func() time.Time) *Purchase {
	p.now = now
	return p
}

// Start opens package selection for customer
func (p *Purchase) Start(customer domain.Customer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if customer.ID == "" {
		return fmt.Errorf("purchase for customer without id: %w", domain.ErrInvalidTransition)
	}
	if p.state != PurchaseClosed {
		return fmt.Errorf("start purchase in state %s: %w", p.state, domain.ErrInvalidTransition)
	}

	p.state = PurchaseSelecting
	p.customer = customer
	p.pkg = domain.Package{}
	return nil
}

// Choose captures pkg and asks for confirmation
func (p *Purchase) Choose(pkg domain.Package) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PurchaseSelecting {
		return fmt.Errorf("choose package in state %s: %w", p.state, domain.ErrInvalidTransition)
	}

	p.state = PurchasePendingConfirm
	p.pkg = pkg
	return nil
}

// Back dismisses the confirmation and returns to package selection
func (p *Purchase) Back() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PurchasePendingConfirm {
		return fmt.Errorf("back in state %s: %w", p.state, domain.ErrInvalidTransition)
	}

	p.state = PurchaseSelecting
	p.pkg = domain.Package{}
	return nil
}

// Cancel closes every purchase dialog
func (p *Purchase) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PurchaseCommitting {
		return fmt.Errorf("cancel while committing: %w", domain.ErrInvalidTransition)
	}

	p.state = PurchaseClosed
	p.customer = domain.Customer{}
	p.pkg = domain.Package{}
	return nil
}

// Confirm records the purchase. The total is the chosen package's price.
// On failure the dialogs stay on the confirmation and nothing is stored.
func (p *Purchase) Confirm(ctx context.Context) (domain.Transaction, error) {
	p.mu.Lock()
	if p.state != PurchasePendingConfirm {
		state := p.state
		p.mu.Unlock()
		return domain.Transaction{}, fmt.Errorf("confirm purchase in state %s: %w", state, domain.ErrNoPendingConfirmation)
	}
	p.state = PurchaseCommitting
	trx := domain.NewTransaction(p.deps.NewID(), p.customer, p.pkg, p.now())
	pkgName := p.pkg.Name
	p.mu.Unlock()

	stored, err := p.repo.Create(ctx, trx)
	p.deps.finish(ctx, string(remote.Transactions), remote.OpCreate, trx.ID, err)
	if err != nil {
		p.setState(PurchasePendingConfirm)
		p.deps.Log.Errorw("Failed to create transaction", "id", trx.ID, "customer", trx.CustomerID, "package", trx.PackageID, "error", err)
		p.deps.Notifications.Error(MsgPurchaseFailed)
		return domain.Transaction{}, err
	}

	if err := p.transactions.ApplyCreate(stored); err != nil {
		p.deps.Log.Warnw("Created transaction already present locally", "id", stored.ID, "error", err)
	}

	p.mu.Lock()
	p.state = PurchaseClosed
	p.customer = domain.Customer{}
	p.pkg = domain.Package{}
	p.mu.Unlock()

	p.deps.Notifications.Success(PurchasedMessage(pkgName))
	p.deps.Log.Infow("Package purchased", "id", stored.ID, "customer", stored.CustomerID, "package", stored.PackageID, "total", stored.Total)

	p.deps.refetch(ctx, string(remote.Transactions), p.transactions)
	return stored, nil
}

func (p *Purchase) setState(state PurchaseState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

// State returns the dialog state
func (p *Purchase) State() PurchaseState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Selection returns the captured customer and package
func (p *Purchase) Selection() (domain.Customer, domain.Package) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.customer, p.pkg
}

// Prompt is the confirmation question for the chosen package
func (p *Purchase) Prompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("Are you sure you want to buy %s?", p.pkg.Name)
}

// PurchasedMessage is the success notification for buying pkgName
func PurchasedMessage(pkgName string) string {
	return fmt.Sprintf("Successfully purchased %s!", pkgName)
}
