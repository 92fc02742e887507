package remote_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/remote"
	"github.com/Dhoini/customer-console/internal/remote/remotetest"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*remotetest.Server, *remote.Client) {
	t.Helper()
	log := logger.NewNop()
	srv := remotetest.New(log)
	t.Cleanup(srv.Close)
	return srv, remote.NewClient(srv.URL, 5*time.Second, log)
}

func TestRepositoryList(t *testing.T) {
	srv, client := newFixture(t)
	srv.SeedPackages(
		domain.Package{ID: "p1", Name: "Basic", Description: "10 Mbps", Price: 50000},
		domain.Package{ID: "p2", Name: "Pro", Description: "50 Mbps", Price: 150000},
	)

	pkgs, err := remote.NewRepository[domain.Package](client, remote.Packages).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Package{
		{ID: "p1", Name: "Basic", Description: "10 Mbps", Price: 50000},
		{ID: "p2", Name: "Pro", Description: "50 Mbps", Price: 150000},
	}, pkgs)

	customers, err := remote.NewRepository[domain.Customer](client, remote.Customers).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, customers)
	assert.Empty(t, customers)
}

func TestRepositoryCustomerLifecycle(t *testing.T) {
	srv, client := newFixture(t)
	repo := remote.NewRepository[domain.Customer](client, remote.Customers)
	ctx := context.Background()

	ann := domain.Customer{ID: "c1", Name: "Ann", Phone: "08123456789", Email: "ann@x.com"}
	created, err := repo.Create(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, ann, created)

	ann.Name = "Ann Smith"
	updated, err := repo.Update(ctx, ann.ID, ann)
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith", updated.Name)
	assert.Equal(t, []domain.Customer{ann}, srv.Customers())

	require.NoError(t, repo.Delete(ctx, ann.ID))
	assert.Empty(t, srv.Customers())
}

func TestRepositoryErrors(t *testing.T) {
	srv, client := newFixture(t)
	repo := remote.NewRepository[domain.Customer](client, remote.Customers)
	ctx := context.Background()
	valid := domain.Customer{ID: "c1", Name: "Ann", Phone: "08123456789", Email: "ann@x.com"}

	t.Run("update unknown id is not found", func(t *testing.T) {
		_, err := repo.Update(ctx, "missing", domain.Customer{ID: "missing", Name: "X", Phone: "0812345678", Email: "x@y.z"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete unknown id is not found", func(t *testing.T) {
		err := repo.Delete(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		var remoteErr *domain.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
		assert.Equal(t, remote.OpDelete, remoteErr.Op)
		assert.Equal(t, "customers", remoteErr.Entity)
		assert.Equal(t, "missing", remoteErr.ID)
	})

	t.Run("server side rejection", func(t *testing.T) {
		_, err := repo.Create(ctx, domain.Customer{ID: "c2", Name: "Bad", Phone: "1", Email: "bad"})
		assert.ErrorIs(t, err, domain.ErrValidationRejected)
		assert.True(t, remote.IsRemote(err))
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, valid)
		require.NoError(t, err)
		_, err = repo.Create(ctx, valid)
		assert.ErrorIs(t, err, domain.ErrValidationRejected)
	})

	t.Run("5xx is a network error", func(t *testing.T) {
		srv.FailNext(http.MethodGet, "customers", http.StatusServiceUnavailable)
		_, err := repo.List(ctx)
		assert.ErrorIs(t, err, domain.ErrNetwork)
	})

	t.Run("dropped connection is a network error", func(t *testing.T) {
		srv.FailNext(http.MethodDelete, "customers", remotetest.StatusDropConnection)
		err := repo.Delete(ctx, valid.ID)
		assert.ErrorIs(t, err, domain.ErrNetwork)
		// the record survived on the server
		assert.Len(t, srv.Customers(), 1)
	})

	t.Run("no retry on failure", func(t *testing.T) {
		before := srv.Calls(http.MethodPost, "customers")
		srv.FailNext(http.MethodPost, "customers", http.StatusInternalServerError)
		_, err := repo.Create(ctx, domain.Customer{ID: "c3", Name: "Cy", Phone: "0812345678", Email: "c@y.z"})
		require.Error(t, err)
		assert.Equal(t, before+1, srv.Calls(http.MethodPost, "customers"))
	})
}

func TestUnreachableStore(t *testing.T) {
	srv, client := newFixture(t)
	srv.Close()

	_, err := remote.NewRepository[domain.Transaction](client, remote.Transactions).List(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestContextCancellation(t *testing.T) {
	_, client := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := remote.NewRepository[domain.Customer](client, remote.Customers).List(ctx)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransactionCreateValidatesWireFormat(t *testing.T) {
	_, client := newFixture(t)
	repo := remote.NewRepository[domain.Transaction](client, remote.Transactions)
	ctx := context.Background()

	trx := domain.NewTransaction("t1", domain.Customer{ID: "c1"}, domain.Package{ID: "p1", Price: 50000}, time.Now())
	stored, err := repo.Create(ctx, trx)
	require.NoError(t, err)
	assert.Equal(t, trx, stored)

	_, err = repo.Create(ctx, domain.Transaction{ID: "t2", CustomerID: "c1", PackageID: "p1", Date: "today"})
	assert.ErrorIs(t, err, domain.ErrValidationRejected)
}

func TestAuthenticate(t *testing.T) {
	srv, client := newFixture(t)
	srv.AddUser("u1", "admin", "secret")
	ctx := context.Background()

	u, err := client.Authenticate(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: "u1", Username: "admin"}, u)

	_, err = client.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.False(t, remote.IsRemote(err))
}
