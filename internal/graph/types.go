package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/fanout-labs/gqlgate/internal/downstream"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type moneyResolver struct {
	money downstream.Money
}

func newMoneyResolver(m *downstream.Money) *moneyResolver {
	if m == nil {
		return nil
	}
	return &moneyResolver{money: *m}
}

func (m *moneyResolver) Amount() string {
	return m.money.Amount.String()
}

func (m *moneyResolver) Currency() string {
	return m.money.Currency
}

type orderResolver struct {
	root  *Resolver
	order downstream.Order
}

func (o *orderResolver) ID() graphql.ID {
	return graphql.ID(o.order.ID)
}

func (o *orderResolver) ExternalID() *string {
	return optional(o.order.ExternalID)
}

func (o *orderResolver) Status() string {
	return string(o.order.Status)
}

func (o *orderResolver) CustomerID() graphql.ID {
	return graphql.ID(o.order.CustomerID)
}

func (o *orderResolver) Total() *moneyResolver {
	return newMoneyResolver(o.order.Total)
}

func (o *orderResolver) CreatedAt() *DateTime {
	return dateTime(o.order.CreatedAt)
}

func (o *orderResolver) UpdatedAt() *DateTime {
	return dateTime(o.order.UpdatedAt)
}

func (o *orderResolver) InventoryItems(ctx context.Context) ([]*inventoryItemResolver, error) {
	items, _, err := o.root.loaders(ctx).InventoryByOrder.Load(ctx, o.order.ID)
	if err != nil {
		return nil, resolverError(ctx, o.root.logger, "Order.inventoryItems", err)
	}
	return inventoryItemResolvers(items), nil
}

func (o *orderResolver) Payments(ctx context.Context) ([]*paymentResolver, error) {
	payments, _, err := o.root.loaders(ctx).PaymentsByOrder.Load(ctx, o.order.ID)
	if err != nil {
		return nil, resolverError(ctx, o.root.logger, "Order.payments", err)
	}
	return o.root.paymentResolvers(payments), nil
}

type inventoryItemResolver struct {
	item downstream.InventoryItem
}

func inventoryItemResolvers(items []downstream.InventoryItem) []*inventoryItemResolver {
	out := make([]*inventoryItemResolver, 0, len(items))
	for _, item := range items {
		out = append(out, &inventoryItemResolver{item: item})
	}
	return out
}

func (i *inventoryItemResolver) ID() graphql.ID {
	return graphql.ID(i.item.ID)
}

func (i *inventoryItemResolver) Sku() string {
	return i.item.SKU
}

func (i *inventoryItemResolver) Name() string {
	return i.item.Name
}

func (i *inventoryItemResolver) Description() *string {
	return optional(i.item.Description)
}

func (i *inventoryItemResolver) AvailableQuantity() int32 {
	return i.item.AvailableQuantity
}

func (i *inventoryItemResolver) ReservedQuantity() int32 {
	return i.item.ReservedQuantity
}

func (i *inventoryItemResolver) UpdatedAt() *DateTime {
	return dateTime(i.item.UpdatedAt)
}

type paymentResolver struct {
	root    *Resolver
	payment downstream.Payment
}

func (r *Resolver) paymentResolvers(payments []downstream.Payment) []*paymentResolver {
	out := make([]*paymentResolver, 0, len(payments))
	for _, p := range payments {
		out = append(out, &paymentResolver{root: r, payment: p})
	}
	return out
}

func (p *paymentResolver) ID() graphql.ID {
	return graphql.ID(p.payment.ID)
}

func (p *paymentResolver) OrderID() graphql.ID {
	return graphql.ID(p.payment.OrderID)
}

func (p *paymentResolver) Status() string {
	return string(p.payment.Status)
}

func (p *paymentResolver) Total() *moneyResolver {
	return newMoneyResolver(p.payment.Total)
}

func (p *paymentResolver) Provider() *string {
	return optional(p.payment.Provider)
}

func (p *paymentResolver) CreatedAt() *DateTime {
	return dateTime(p.payment.CreatedAt)
}

func (p *paymentResolver) UpdatedAt() *DateTime {
	return dateTime(p.payment.UpdatedAt)
}

// Order is null when the orders service does not know the payment's order.
func (p *paymentResolver) Order(ctx context.Context) (*orderResolver, error) {
	order, ok, err := p.root.loaders(ctx).OrderByID.Load(ctx, p.payment.OrderID)
	if err != nil {
		return nil, resolverError(ctx, p.root.logger, "Payment.order", err)
	}
	if !ok {
		return nil, nil
	}
	return &orderResolver{root: p.root, order: order}, nil
}
