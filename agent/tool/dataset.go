// Package tool routes classified intents to business operations and records
// every dispatch as a ToolCallRecord. The dataset behind the operations is
// swappable: an in-memory fixture set for development and tests, or Postgres
// via bun in deployments.
package tool

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

// ErrNotFound reports a lookup miss against the business dataset.
var ErrNotFound = errors.New("record not found")

// Order is one purchase record.
type Order struct {
	bun.BaseModel `bun:"table:orders" json:"-"`

	OrderID          string  `bun:"order_id,pk" json:"order_id"`
	Status           string  `bun:"status" json:"status"`
	Product          string  `bun:"product" json:"product"`
	Quantity         int     `bun:"quantity" json:"quantity"`
	Price            float64 `bun:"price" json:"price"`
	OrderDate        string  `bun:"order_date" json:"order_date"`
	ShippingDate     string  `bun:"shipping_date" json:"shipping_date,omitempty"`
	ExpectedDelivery string  `bun:"expected_delivery" json:"expected_delivery"`
	TrackingNumber   string  `bun:"tracking_number" json:"tracking_number,omitempty"`
}

// InventoryItem is one stock-keeping record.
type InventoryItem struct {
	bun.BaseModel `bun:"table:inventory" json:"-"`

	ProductName     string  `bun:"product_name,pk" json:"product_name"`
	SKU             string  `bun:"sku" json:"sku"`
	Stock           int     `bun:"stock" json:"stock"`
	Status          string  `bun:"status" json:"status"`
	Price           float64 `bun:"price" json:"price"`
	Warehouse       string  `bun:"warehouse" json:"warehouse"`
	ExpectedRestock string  `bun:"expected_restock" json:"expected_restock,omitempty"`
}

// ShipmentTrace is one scan event on a shipment's route.
type ShipmentTrace struct {
	Time     string `json:"time"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

// Shipment is the logistics record behind a tracking number.
type Shipment struct {
	bun.BaseModel `bun:"table:shipments" json:"-"`

	TrackingNumber  string          `bun:"tracking_number,pk" json:"tracking_number"`
	Carrier         string          `bun:"carrier" json:"carrier"`
	Status          string          `bun:"status" json:"status"`
	CurrentLocation string          `bun:"current_location" json:"current_location"`
	Destination     string          `bun:"destination" json:"destination"`
	Traces          []ShipmentTrace `bun:"traces,type:jsonb" json:"traces"`
}

// RefundReceipt is the outcome of filing a refund.
type RefundReceipt struct {
	bun.BaseModel `bun:"table:refunds" json:"-"`

	RefundID      string  `bun:"refund_id,pk" json:"refund_id"`
	OrderID       string  `bun:"order_id" json:"order_id"`
	RefundAmount  float64 `bun:"refund_amount" json:"refund_amount"`
	Reason        string  `bun:"reason" json:"reason"`
	Status        string  `bun:"status" json:"status"`
	EstimatedDays string  `bun:"estimated_days" json:"estimated_days"`
}

// Dataset is the read (plus one write) contract against the business records.
// Lookup misses return ErrNotFound; other errors mean the operation itself
// failed.
type Dataset interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	// FileRefund files a full refund for the order. The one write.
	FileRefund(ctx context.Context, orderID, reason string) (*RefundReceipt, error)
	// SearchInventory matches product names by case-insensitive substring.
	SearchInventory(ctx context.Context, productName string) (*InventoryItem, error)
	GetShipment(ctx context.Context, trackingNumber string) (*Shipment, error)
}
