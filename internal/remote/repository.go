package remote

import (
	"context"
	"net/http"

	"github.com/Dhoini/customer-console/internal/domain"
)

// Repository is the CRUD contract of one remote collection
type Repository[T domain.Record] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, id string, record T) (T, error)
	Delete(ctx context.Context, id string) error
}

type httpRepository[T domain.Record] struct {
	client *Client
	kind   Kind
}

// NewRepository binds a collection of the record store to T
func NewRepository[T domain.Record](client *Client, kind Kind) Repository[T] {
	return &httpRepository[T]{
		client: client,
		kind:   kind,
	}
}

// List returns the full collection
func (r *httpRepository[T]) List(ctx context.Context) ([]T, error) {
	cl := call{op: OpList, kind: r.kind, method: http.MethodGet}

	payload, err := r.client.do(ctx, cl)
	if err != nil {
		return nil, err
	}

	records, err := decode[[]T](cl, payload)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Create posts a new record and returns the stored version
func (r *httpRepository[T]) Create(ctx context.Context, record T) (T, error) {
	cl := call{op: OpCreate, kind: r.kind, method: http.MethodPost, body: record}
	return r.echo(ctx, cl, record)
}

// Update replaces the record stored under id
func (r *httpRepository[T]) Update(ctx context.Context, id string, record T) (T, error) {
	cl := call{op: OpUpdate, kind: r.kind, id: id, method: http.MethodPut, body: record}
	return r.echo(ctx, cl, record)
}

// Delete removes the record stored under id
func (r *httpRepository[T]) Delete(ctx context.Context, id string) error {
	cl := call{op: OpDelete, kind: r.kind, id: id, method: http.MethodDelete}
	_, err := r.client.do(ctx, cl)
	return err
}

// echo runs a write and decodes the echoed record. An empty body means the
// store accepted the record as sent.
func (r *httpRepository[T]) echo(ctx context.Context, cl call, sent T) (T, error) {
	payload, err := r.client.do(ctx, cl)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(payload) == 0 {
		return sent, nil
	}

	stored, err := decode[T](cl, payload)
	if err != nil {
		var zero T
		return zero, err
	}
	if stored.RecordID() == "" {
		return sent, nil
	}
	return stored, nil
}
