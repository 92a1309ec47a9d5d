package downstream

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
)

type PaymentStatus string

const (
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusCaptured   PaymentStatus = "CAPTURED"
	PaymentStatusDeclined   PaymentStatus = "DECLINED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// Money is a decimal amount in an ISO 4217 currency. Amount keeps the decimal text sent
// by the services so no precision is lost.
type Money struct {
	Amount   json.Number `json:"amount" validate:"required,numeric"`
	Currency string      `json:"currency" validate:"required,iso4217"`
}

type Order struct {
	ID         string      `json:"id"`
	ExternalID string      `json:"externalId,omitempty"`
	Status     OrderStatus `json:"status"`
	CustomerID string      `json:"customerId"`
	Total      *Money      `json:"total,omitempty"`
	CreatedAt  *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time  `json:"updatedAt,omitempty"`
}

type InventoryItem struct {
	ID                string     `json:"id"`
	OrderID           string     `json:"orderId,omitempty"`
	SKU               string     `json:"sku"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	AvailableQuantity int32      `json:"availableQuantity"`
	ReservedQuantity  int32      `json:"reservedQuantity"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

type Payment struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"orderId"`
	Status    PaymentStatus `json:"status"`
	Total     *Money        `json:"total,omitempty"`
	Provider  string        `json:"provider,omitempty"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt *time.Time    `json:"updatedAt,omitempty"`
}

type CreateOrderItemInput struct {
	InventoryItemID string      `json:"inventoryItemId" validate:"required,uuid"`
	Quantity        int32       `json:"quantity" validate:"gt=0"`
	UnitPrice       json.Number `json:"unitPrice" validate:"required,numeric"`
	Currency        string      `json:"currency" validate:"required,iso4217"`
}

type CreateOrderInput struct {
	ClientMutationID string                 `json:"clientMutationId,omitempty"`
	CustomerID       string                 `json:"customerId" validate:"required,uuid"`
	Items            []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
	Total            Money                  `json:"total"`
}

type UpdateInventoryItemInput struct {
	ID                string `json:"id" validate:"required,uuid"`
	AvailableQuantity *int32 `json:"availableQuantity,omitempty" validate:"omitempty,gte=0"`
	ReservedQuantity  *int32 `json:"reservedQuantity,omitempty" validate:"omitempty,gte=0"`
}

type CapturePaymentInput struct {
	OrderID  string `json:"orderId" validate:"required,uuid"`
	Total    Money  `json:"total"`
	Provider string `json:"provider,omitempty" validate:"omitempty,max=64"`
}
