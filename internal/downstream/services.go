package downstream

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fanout-labs/gqlgate/pkg/logger"
	"github.com/fanout-labs/gqlgate/pkg/retryablehttp"
)

type Config struct {
	OrdersURL    string
	InventoryURL string
	PaymentsURL  string
	Timeout      time.Duration
	RetryMax     int
}

// Services groups the typed clients of every resource service.
type Services struct {
	Orders    *Orders
	Inventory *Inventory
	Payments  *Payments
}

// New builds the clients. All of them share one retrying HTTP client with a traced
// transport.
func New(cfg Config, l logger.Logger) (*Services, error) {
	httpClient := retryablehttp.NewClient(
		retryablehttp.WithRetryMax(cfg.RetryMax),
		retryablehttp.WithTimeout(cfg.Timeout),
		retryablehttp.WithTransport(otelhttp.NewTransport(http.DefaultTransport)),
		retryablehttp.WithLogger(l),
	)

	orders, err := NewClient("orders", cfg.OrdersURL, httpClient, l)
	if err != nil {
		return nil, err
	}
	inventory, err := NewClient("inventory", cfg.InventoryURL, httpClient, l)
	if err != nil {
		return nil, err
	}
	payments, err := NewClient("payments", cfg.PaymentsURL, httpClient, l)
	if err != nil {
		return nil, err
	}

	return &Services{
		Orders:    &Orders{client: orders},
		Inventory: &Inventory{client: inventory},
		Payments:  &Payments{client: payments},
	}, nil
}

type Orders struct {
	client *Client
}

func NewOrders(client *Client) *Orders {
	return &Orders{client: client}
}

// ListByIDs returns the orders that exist among ids, in no particular order.
func (o *Orders) ListByIDs(ctx context.Context, ids []string) ([]Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []Order
	err := o.client.Do(ctx, http.MethodGet, "/internal/orders", idsQuery("ids", ids), nil, &out)
	return out, err
}

func (o *Orders) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	out := &Order{}
	if err := o.client.Do(ctx, http.MethodPost, "/internal/orders", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

type Inventory struct {
	client *Client
}

func NewInventory(client *Client) *Inventory {
	return &Inventory{client: client}
}

func (i *Inventory) ListByIDs(ctx context.Context, ids []string) ([]InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []InventoryItem
	err := i.client.Do(ctx, http.MethodGet, "/internal/inventory", idsQuery("ids", ids), nil, &out)
	return out, err
}

// ListByOrders returns the items of every order in orderIDs. Each item carries OrderID.
func (i *Inventory) ListByOrders(ctx context.Context, orderIDs []string) ([]InventoryItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var out []InventoryItem
	err := i.client.Do(ctx, http.MethodGet, "/internal/inventory/by-orders", idsQuery("orderIds", orderIDs), nil, &out)
	return out, err
}

func (i *Inventory) Update(ctx context.Context, in UpdateInventoryItemInput) (*InventoryItem, error) {
	out := &InventoryItem{}
	if err := i.client.Do(ctx, http.MethodPut, "/internal/inventory/"+url.PathEscape(in.ID), nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

type Payments struct {
	client *Client
}

func NewPayments(client *Client) *Payments {
	return &Payments{client: client}
}

func (p *Payments) ListByIDs(ctx context.Context, ids []string) ([]Payment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []Payment
	err := p.client.Do(ctx, http.MethodGet, "/internal/payments", idsQuery("ids", ids), nil, &out)
	return out, err
}

func (p *Payments) ListByOrders(ctx context.Context, orderIDs []string) ([]Payment, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var out []Payment
	err := p.client.Do(ctx, http.MethodGet, "/internal/payments/by-orders", idsQuery("orderIds", orderIDs), nil, &out)
	return out, err
}

func (p *Payments) Capture(ctx context.Context, in CapturePaymentInput) (*Payment, error) {
	out := &Payment{}
	if err := p.client.Do(ctx, http.MethodPost, "/internal/payments/capture", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
