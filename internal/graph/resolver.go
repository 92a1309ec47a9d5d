package graph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/internal/downstream"
	"github.com/fanout-labs/gqlgate/pkg/batch"
	"github.com/fanout-labs/gqlgate/pkg/logger"
)

// Resolver is the root resolver of both the Query and the Mutation type.
type Resolver struct {
	services  *downstream.Services
	logger    logger.Logger
	validate  *validator.Validate
	batchOpts []batch.Option
}

func newResolver(services *downstream.Services, l logger.Logger, batchOpts []batch.Option) *Resolver {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Resolver{
		services:  services,
		logger:    l,
		validate:  validate,
		batchOpts: batchOpts,
	}
}

// loaders returns the request's loaders. Outside of a request they are built on demand,
// which still resolves correctly but does not batch across fields.
func (r *Resolver) loaders(ctx context.Context) *Loaders {
	if loaders, ok := LoadersFromContext(ctx); ok {
		return loaders
	}
	return NewLoaders(r.services, r.batchOpts...)
}

type idsArgs struct {
	IDs []graphql.ID
}

func (r *Resolver) Orders(ctx context.Context, args idsArgs) ([]*orderResolver, error) {
	ids, err := parseIDs(args.IDs)
	if err != nil {
		return nil, err
	}

	orders, err := batch.FetchOrdered(ctx, ids, r.services.Orders.ListByIDs, orderKey)
	if err != nil {
		return nil, resolverError(ctx, r.logger, "orders", err)
	}

	out := make([]*orderResolver, 0, len(orders))
	for _, o := range orders {
		out = append(out, &orderResolver{root: r, order: o})
	}
	return out, nil
}

func (r *Resolver) InventoryItems(ctx context.Context, args idsArgs) ([]*inventoryItemResolver, error) {
	ids, err := parseIDs(args.IDs)
	if err != nil {
		return nil, err
	}

	items, err := batch.FetchOrdered(ctx, ids, r.services.Inventory.ListByIDs, func(i downstream.InventoryItem) string { return i.ID })
	if err != nil {
		return nil, resolverError(ctx, r.logger, "inventoryItems", err)
	}
	return inventoryItemResolvers(items), nil
}

func (r *Resolver) Payments(ctx context.Context, args idsArgs) ([]*paymentResolver, error) {
	ids, err := parseIDs(args.IDs)
	if err != nil {
		return nil, err
	}

	payments, err := batch.FetchOrdered(ctx, ids, r.services.Payments.ListByIDs, func(p downstream.Payment) string { return p.ID })
	if err != nil {
		return nil, resolverError(ctx, r.logger, "payments", err)
	}
	return r.paymentResolvers(payments), nil
}

type moneyInput struct {
	Amount   string
	Currency string
}

func (m moneyInput) money() downstream.Money {
	return downstream.Money{Amount: json.Number(strings.TrimSpace(m.Amount)), Currency: m.Currency}
}

type createOrderItemInput struct {
	InventoryItemID graphql.ID
	Quantity        int32
	UnitPrice       string
	Currency        string
}

type createOrderArgs struct {
	Input struct {
		ClientMutationID *string
		CustomerID       graphql.ID
		Items            []createOrderItemInput
		Total            moneyInput
	}
}

func (r *Resolver) CreateOrder(ctx context.Context, args createOrderArgs) (*orderResolver, error) {
	in := downstream.CreateOrderInput{
		CustomerID: string(args.Input.CustomerID),
		Items:      make([]downstream.CreateOrderItemInput, 0, len(args.Input.Items)),
		Total:      args.Input.Total.money(),
	}
	if args.Input.ClientMutationID != nil {
		in.ClientMutationID = *args.Input.ClientMutationID
	}
	for _, item := range args.Input.Items {
		in.Items = append(in.Items, downstream.CreateOrderItemInput{
			InventoryItemID: string(item.InventoryItemID),
			Quantity:        item.Quantity,
			UnitPrice:       json.Number(strings.TrimSpace(item.UnitPrice)),
			Currency:        item.Currency,
		})
	}

	if err := r.validate.StructCtx(ctx, in); err != nil {
		return nil, resolverError(ctx, r.logger, "createOrder", err)
	}

	order, err := r.services.Orders.Create(ctx, in)
	if err != nil {
		return nil, r.mutationError(ctx, "createOrder", err)
	}
	return &orderResolver{root: r, order: *order}, nil
}

type updateInventoryItemArgs struct {
	Input struct {
		ID                graphql.ID
		AvailableQuantity *int32
		ReservedQuantity  *int32
	}
}

func (r *Resolver) UpdateInventoryItem(ctx context.Context, args updateInventoryItemArgs) (*inventoryItemResolver, error) {
	in := downstream.UpdateInventoryItemInput{
		ID:                string(args.Input.ID),
		AvailableQuantity: args.Input.AvailableQuantity,
		ReservedQuantity:  args.Input.ReservedQuantity,
	}
	if in.AvailableQuantity == nil && in.ReservedQuantity == nil {
		return nil, BadRequest("invalid input: nothing to update")
	}

	if err := r.validate.StructCtx(ctx, in); err != nil {
		return nil, resolverError(ctx, r.logger, "updateInventoryItem", err)
	}

	item, err := r.services.Inventory.Update(ctx, in)
	if err != nil {
		return nil, r.mutationError(ctx, "updateInventoryItem", err)
	}
	return &inventoryItemResolver{item: *item}, nil
}

type capturePaymentArgs struct {
	Input struct {
		OrderID  graphql.ID
		Total    moneyInput
		Provider *string
	}
}

func (r *Resolver) CapturePayment(ctx context.Context, args capturePaymentArgs) (*paymentResolver, error) {
	in := downstream.CapturePaymentInput{
		OrderID: string(args.Input.OrderID),
		Total:   args.Input.Total.money(),
	}
	if args.Input.Provider != nil {
		in.Provider = *args.Input.Provider
	}

	if err := r.validate.StructCtx(ctx, in); err != nil {
		return nil, resolverError(ctx, r.logger, "capturePayment", err)
	}

	payment, err := r.services.Payments.Capture(ctx, in)
	if err != nil {
		return nil, r.mutationError(ctx, "capturePayment", err)
	}
	return &paymentResolver{root: r, payment: *payment}, nil
}

// mutationError reports rejections of the client's input by the downstream service as bad
// requests. Everything else is an internal error.
func (r *Resolver) mutationError(ctx context.Context, field string, err error) error {
	var downstreamErr *downstream.Error
	if errors.As(err, &downstreamErr) {
		switch downstreamErr.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			r.logger.InfoWithContext(ctx, "downstream rejected mutation",
				zap.String("field", field),
				zap.Error(err))
			return BadRequest("%s rejected the request: %s", downstreamErr.Service, http.StatusText(downstreamErr.StatusCode))
		}
	}
	return resolverError(ctx, r.logger, field, err)
}

func parseIDs(ids []graphql.ID) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(string(id)); err != nil {
			return nil, BadRequest("invalid id %q: must be a UUID", string(id))
		}
		out = append(out, string(id))
	}
	return out, nil
}

func orderKey(o downstream.Order) string {
	return o.ID
}
