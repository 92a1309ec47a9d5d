package graph

import (
	"context"

	"github.com/fanout-labs/gqlgate/internal/downstream"
	"github.com/fanout-labs/gqlgate/pkg/batch"
)

type ctxKey string

const loadersContextKey = ctxKey("graph-loaders")

// Loaders are the batch resolvers of one request. They must not outlive it.
type Loaders struct {
	InventoryByOrder *batch.Resolver[string, []downstream.InventoryItem]
	PaymentsByOrder  *batch.Resolver[string, []downstream.Payment]
	OrderByID        *batch.Resolver[string, downstream.Order]
}

// NewLoaders builds a fresh set of request-scoped loaders on top of services.
func NewLoaders(services *downstream.Services, opts ...batch.Option) *Loaders {
	named := func(name string) []batch.Option {
		return append([]batch.Option{batch.WithName(name)}, opts...)
	}

	return &Loaders{
		InventoryByOrder: batch.NewGrouping(
			services.Inventory.ListByOrders,
			func(item downstream.InventoryItem) string { return item.OrderID },
			named("inventory_by_order")...,
		),
		PaymentsByOrder: batch.NewGrouping(
			services.Payments.ListByOrders,
			func(p downstream.Payment) string { return p.OrderID },
			named("payments_by_order")...,
		),
		OrderByID: batch.NewScalar(
			services.Orders.ListByIDs,
			func(o downstream.Order) string { return o.ID },
			named("order_by_id")...,
		),
	}
}

func ContextWithLoaders(parent context.Context, loaders *Loaders) context.Context {
	return context.WithValue(parent, loadersContextKey, loaders)
}

func LoadersFromContext(ctx context.Context) (*Loaders, bool) {
	loaders, ok := ctx.Value(loadersContextKey).(*Loaders)
	return loaders, ok
}
