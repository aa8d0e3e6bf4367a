package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/upload"
)

// Resource is one entity collection on the backend. It satisfies
// dialog.Gateway for editable kinds and dialog.CollectionGateway for orders.
type Resource[E domain.Entity] struct {
	client *Client
	kind   domain.Kind
}

func NewResource[E domain.Entity](c *Client, kind domain.Kind) *Resource[E] {
	return &Resource[E]{client: c, kind: kind}
}

// List fetches the signed-in provider's collection. The backend scopes it by
// the bearer token.
func (r *Resource[E]) List(ctx context.Context) ([]E, error) {
	var items []E
	if err := r.client.do(ctx, http.MethodGet, string(r.kind)+"/provider", nil, nil, "", &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []E{}
	}
	return items, nil
}

func (r *Resource[E]) Create(ctx context.Context, p *upload.Payload) (E, error) {
	return r.send(ctx, http.MethodPost, string(r.kind), p)
}

func (r *Resource[E]) Update(ctx context.Context, id string, p *upload.Payload) (E, error) {
	return r.send(ctx, http.MethodPut, r.itemPath(id), p)
}

// Transition calls the one-shot action endpoint, e.g. POST /bookings/{id}/confirm.
func (r *Resource[E]) Transition(ctx context.Context, id string, action domain.Action) (E, error) {
	var e E
	err := r.client.doJSON(ctx, http.MethodPost, r.itemPath(id)+"/"+url.PathEscape(string(action)), nil, &e)
	return e, err
}

func (r *Resource[E]) send(ctx context.Context, method, path string, p *upload.Payload) (E, error) {
	var e E
	body, contentType, err := p.Encode()
	if err != nil {
		return e, fmt.Errorf("remote: %w", err)
	}
	err = r.client.do(ctx, method, path, nil, body, contentType, &e)
	return e, err
}

func (r *Resource[E]) itemPath(id string) string {
	return string(r.kind) + "/" + url.PathEscape(id)
}

// Bookings, Products, Services and Orders are the collections the console
// manages.
func (c *Client) Bookings() *Resource[domain.Booking] {
	return NewResource[domain.Booking](c, domain.KindBooking)
}

func (c *Client) Products() *Resource[domain.Product] {
	return NewResource[domain.Product](c, domain.KindProduct)
}

func (c *Client) Services() *Resource[domain.Service] {
	return NewResource[domain.Service](c, domain.KindService)
}

func (c *Client) Orders() *Resource[domain.Order] {
	return NewResource[domain.Order](c, domain.KindOrder)
}

// Register creates an account. confirmPassword never leaves the console.
func (c *Client) Register(ctx context.Context, f domain.SignupForm) error {
	f.ConfirmPassword = ""
	return c.doJSON(ctx, http.MethodPost, "auth/register", f, nil)
}
