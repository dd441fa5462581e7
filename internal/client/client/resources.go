package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
	"github.com/dmitrijs2005/spotlight/internal/client/normalize"
)

// Resource implements SubResource over user/<plural>.
type Resource[T models.Entity] struct {
	c        *HTTPClient
	path     string
	singular string
	plural   string
}

func newResource[T models.Entity](c *HTTPClient, singular, plural string) *Resource[T] {
	return &Resource[T]{c: c, path: "user/" + plural, singular: singular, plural: plural}
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List never fails on shape: anything unusable is an empty list.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	op := "list " + r.plural
	body, err := r.c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     r.path,
		fallback: "Failed to fetch " + r.plural,
	})
	if err != nil {
		return nil, err
	}
	return decodeList[T](ctx, r.c, op, body, r.plural, "data", normalize.Body), nil
}

func (r *Resource[T]) Add(ctx context.Context, item T) (T, error) {
	req := request{
		op:       "add " + r.singular,
		method:   http.MethodPost,
		path:     r.path,
		body:     item,
		fallback: "Failed to add " + r.singular,
	}
	body, err := r.c.do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}

	created, err := normalize.One[T](body, r.singular, r.plural, "data", normalize.Body)
	if err != nil {
		return created, req.malformed(err)
	}
	return created, nil
}

func (r *Resource[T]) Update(ctx context.Context, id string, item T) (T, error) {
	req := request{
		op:       "update " + r.singular,
		method:   http.MethodPut,
		path:     r.itemPath(id),
		body:     item,
		fallback: "Failed to update " + r.singular,
	}
	body, err := r.c.do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}

	updated, err := normalize.One[T](body, r.singular, "data", normalize.Body)
	if err != nil {
		return updated, req.malformed(err)
	}
	return updated, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.c.do(ctx, request{
		op:       "delete " + r.singular,
		method:   http.MethodDelete,
		path:     r.itemPath(id),
		fallback: "Failed to delete " + r.singular,
	})
	return err
}
