// Package remotetest runs an in-memory record store over HTTP for tests.
// It serves the same routes as the real store and can be told to fail or
// stall specific calls.
package remotetest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/internal/validation"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/Dhoini/customer-console/pkg/res"
	"github.com/gin-gonic/gin"
)

// StatusDropConnection makes an injected failure close the connection
// without answering, which the client sees as a network error.
const StatusDropConnection = 0

// Server is a running fake record store
type Server struct {
	*httptest.Server

	customers    *collection[domain.Customer]
	packages     *collection[domain.Package]
	transactions *collection[domain.Transaction]

	mu       sync.Mutex
	accounts []user
	failures map[string][]int
	gates    map[string]*Gate
	calls    map[string]int
	log      *logger.Logger
}

// New starts a fake record store. Call Close when done.
func New(log *logger.Logger) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		customers:    newCollection[domain.Customer]("customers"),
		packages:     newCollection[domain.Package]("packages"),
		transactions: newCollection[domain.Transaction]("transactions"),
		failures:     make(map[string][]int),
		gates:        make(map[string]*Gate),
		calls:        make(map[string]int),
		log:          log,
	}

	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(LoggerMiddleware(s.log))
	r.Use(gin.Recovery())
	r.Use(s.intercept)

	engine := validation.New()

	customers := &recordHandler[domain.Customer]{
		store: s.customers,
		check: func(c domain.Customer) any {
			if errs := engine.ValidateCustomer(c); errs.HasErrors() {
				return errs
			}
			return nil
		},
		log: s.log,
	}
	packages := &recordHandler[domain.Package]{store: s.packages, log: s.log}
	transactions := &recordHandler[domain.Transaction]{
		store: s.transactions,
		check: checkTransaction,
		log:   s.log,
	}

	{
		g := r.Group("/customers")
		g.GET("", customers.GetAll)
		g.POST("", customers.Create)
		g.PUT("/:id", customers.Update)
		g.DELETE("/:id", customers.Delete)
	}
	r.GET("/packages", packages.GetAll)
	{
		g := r.Group("/transactions")
		g.GET("", transactions.GetAll)
		g.POST("", transactions.Create)
		g.DELETE("/:id", transactions.Delete)
	}
	r.GET("/users", s.users)

	return r
}

// key identifies a route by method and collection, e.g. "POST customers"
func key(method, collection string) string {
	return method + " " + collection
}

func requestKey(r *http.Request) string {
	collection := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[0]
	return key(r.Method, collection)
}

// intercept counts calls, waits on gates and applies injected failures
func (s *Server) intercept(c *gin.Context) {
	k := requestKey(c.Request)

	s.mu.Lock()
	s.calls[k]++
	gate := s.gates[k]
	var status int
	fail := false
	if queue := s.failures[k]; len(queue) > 0 {
		status, fail = queue[0], true
		s.failures[k] = queue[1:]
	}
	s.mu.Unlock()

	if gate != nil {
		gate.wait()
	}

	if !fail {
		c.Next()
		return
	}

	if status == StatusDropConnection {
		s.log.Debugw("Dropping connection", "route", k)
		if conn, _, err := c.Writer.Hijack(); err == nil {
			_ = conn.Close()
		}
		c.Abort()
		return
	}

	s.log.Debugw("Injecting failure", "route", k, "status", status)
	c.AbortWithStatusJSON(status, res.ErrorResponse{Error: http.StatusText(status)})
}

// FailNext makes the next call to method on collection answer with status.
// Repeated calls queue further failures.
func (s *Server) FailNext(method, collection string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(method, collection)
	s.failures[k] = append(s.failures[k], status)
}

// Calls returns how many requests reached method on collection
func (s *Server) Calls(method, collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key(method, collection)]
}

// Hold installs a gate: matching requests block until it is released.
func (s *Server) Hold(method, collection string) *Gate {
	g := newGate()
	s.mu.Lock()
	s.gates[key(method, collection)] = g
	s.mu.Unlock()
	return g
}

// Unhold removes the gate on method and collection and releases it
func (s *Server) Unhold(method, collection string) {
	s.mu.Lock()
	g := s.gates[key(method, collection)]
	delete(s.gates, key(method, collection))
	s.mu.Unlock()
	if g != nil {
		g.Release()
	}
}

// Close releases every gate and shuts the server down
func (s *Server) Close() {
	s.mu.Lock()
	gates := s.gates
	s.gates = make(map[string]*Gate)
	s.mu.Unlock()
	for _, g := range gates {
		g.Release()
	}
	s.Server.Close()
}

// SeedCustomers replaces the customer collection
func (s *Server) SeedCustomers(customers ...domain.Customer) { s.customers.reset(customers) }

// SeedPackages replaces the package collection
func (s *Server) SeedPackages(packages ...domain.Package) { s.packages.reset(packages) }

// SeedTransactions replaces the transaction collection
func (s *Server) SeedTransactions(trxs ...domain.Transaction) { s.transactions.reset(trxs) }

// AddUser registers an account for GET /users
func (s *Server) AddUser(id, username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, user{User: domain.User{ID: id, Username: username}, Password: password})
}

// Customers returns the server side customers
func (s *Server) Customers() []domain.Customer { return s.customers.list() }

// Transactions returns the server side transactions
func (s *Server) Transactions() []domain.Transaction { return s.transactions.list() }

// Gate blocks requests until released
type Gate struct {
	arrived  chan struct{}
	release  chan struct{}
	once     sync.Once
	arriveMu sync.Once
}

func newGate() *Gate {
	return &Gate{
		arrived: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *Gate) wait() {
	g.arriveMu.Do(func() { close(g.arrived) })
	<-g.release
}

// Arrived is closed once a request reaches the gate
func (g *Gate) Arrived() <-chan struct{} { return g.arrived }

// WaitArrived blocks until a request reaches the gate or the timeout passes
func (g *Gate) WaitArrived(timeout time.Duration) bool {
	select {
	case <-g.arrived:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Release lets every held request continue. Safe to call more than once.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}
