package tool

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// MemoryDataset is the fixture-backed dataset used in development and tests.
type MemoryDataset struct {
	mu        sync.RWMutex
	orders    map[string]Order
	inventory map[string]InventoryItem
	shipments map[string]Shipment
	refunds   []RefundReceipt

	rnd *rand.Rand
}

// NewMemoryDataset seeds the standard fixtures: a shipped order with a
// tracking number, a processing order without one, three inventory items, and
// the shipped order's logistics trace.
func NewMemoryDataset() *MemoryDataset {
	now := time.Now()
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02 15:04:05")
	}

	d := &MemoryDataset{
		orders:    make(map[string]Order),
		inventory: make(map[string]InventoryItem),
		shipments: make(map[string]Shipment),
		rnd:       rand.New(rand.NewSource(now.UnixNano())),
	}

	d.orders["ORD001"] = Order{
		OrderID:          "ORD001",
		Status:           "已发货",
		Product:          "iPhone 15 Pro",
		Quantity:         1,
		Price:            7999.00,
		OrderDate:        day(-2),
		ShippingDate:     day(-1),
		ExpectedDelivery: now.AddDate(0, 0, 2).Format("2006-01-02"),
		TrackingNumber:   "SF1234567890",
	}
	d.orders["ORD002"] = Order{
		OrderID:          "ORD002",
		Status:           "处理中",
		Product:          "MacBook Pro 14寸",
		Quantity:         1,
		Price:            15999.00,
		OrderDate:        day(0),
		ExpectedDelivery: now.AddDate(0, 0, 5).Format("2006-01-02"),
	}

	d.inventory["iPhone 15 Pro"] = InventoryItem{
		ProductName: "iPhone 15 Pro",
		SKU:         "IP15P-256-BLK",
		Stock:       156,
		Status:      "有货",
		Price:       7999.00,
		Warehouse:   "华东仓",
	}
	d.inventory["MacBook Pro"] = InventoryItem{
		ProductName: "MacBook Pro 14寸",
		SKU:         "MBP14-512-SLV",
		Stock:       23,
		Status:      "有货",
		Price:       15999.00,
		Warehouse:   "华北仓",
	}
	d.inventory["AirPods Pro"] = InventoryItem{
		ProductName:     "AirPods Pro 2",
		SKU:             "APP2-WHT",
		Stock:           0,
		Status:          "缺货",
		Price:           1899.00,
		Warehouse:       "华南仓",
		ExpectedRestock: now.AddDate(0, 0, 7).Format("2006-01-02"),
	}

	hoursAgo := func(h int) string {
		return now.Add(-time.Duration(h) * time.Hour).Format("2006-01-02 15:04:05")
	}
	d.shipments["SF1234567890"] = Shipment{
		TrackingNumber:  "SF1234567890",
		Carrier:         "顺丰速运",
		Status:          "运输中",
		CurrentLocation: "上海分拨中心",
		Destination:     "北京市朝阳区",
		Traces: []ShipmentTrace{
			{Time: hoursAgo(2), Location: "上海分拨中心", Status: "已到达上海分拨中心"},
			{Time: hoursAgo(12), Location: "深圳集散中心", Status: "已离开深圳集散中心"},
			{Time: hoursAgo(24), Location: "深圳华强北营业点", Status: "已揽收"},
		},
	}

	return d
}

func (d *MemoryDataset) GetOrder(_ context.Context, orderID string) (*Order, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	order, ok := d.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return &order, nil
}

func (d *MemoryDataset) FileRefund(ctx context.Context, orderID, reason string) (*RefundReceipt, error) {
	order, err := d.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	receipt := RefundReceipt{
		RefundID:      fmt.Sprintf("RFD%05d", 10000+d.rnd.Intn(90000)),
		OrderID:       order.OrderID,
		RefundAmount:  order.Price,
		Reason:        reason,
		Status:        "审核中",
		EstimatedDays: "3-5个工作日",
	}
	d.refunds = append(d.refunds, receipt)
	return &receipt, nil
}

func (d *MemoryDataset) SearchInventory(_ context.Context, productName string) (*InventoryItem, error) {
	needle := strings.ToLower(productName)

	d.mu.RLock()
	defer d.mu.RUnlock()
	for name, item := range d.inventory {
		if strings.Contains(strings.ToLower(name), needle) {
			match := item
			return &match, nil
		}
	}
	return nil, fmt.Errorf("%w: product %s", ErrNotFound, productName)
}

func (d *MemoryDataset) GetShipment(_ context.Context, trackingNumber string) (*Shipment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	shipment, ok := d.shipments[trackingNumber]
	if !ok {
		return nil, fmt.Errorf("%w: tracking number %s", ErrNotFound, trackingNumber)
	}
	return &shipment, nil
}
