package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
	statex "github.com/nanxi-ai/smartcs/agent/state"
)

// DefaultRefundReason is filed when the classifier extracted no reason slot.
const DefaultRefundReason = "用户申请退款"

// Dispatcher maps recognized intents to business operations and wraps every
// attempt into exactly one ToolCallRecord. It owns routing and error
// wrapping only; the data lives behind Dataset.
type Dispatcher struct {
	data Dataset
	now  func() time.Time
}

func NewDispatcher(data Dataset) (*Dispatcher, error) {
	if data == nil {
		return nil, errors.New("dataset is required")
	}
	return &Dispatcher{data: data, now: time.Now}, nil
}

// Dispatch runs the operation for the state's current intent and entities.
// Recognized intents always yield a record: success, missing required entity,
// or a wrapped operation failure. Unrecognized intents (product_info,
// general_chat, ...) yield nil.
func (d *Dispatcher) Dispatch(ctx context.Context, st *statex.ConversationState) *statex.ToolCallRecord {
	intent := contractx.Intent(st.Intent)

	var (
		result statex.ToolResult
		err    error
	)
	switch intent {
	case contractx.IntentOrderQuery:
		result, err = d.orderQuery(ctx, st.Entities)
	case contractx.IntentRefundRequest:
		result, err = d.refundRequest(ctx, st.Entities)
	case contractx.IntentInventoryCheck:
		result, err = d.inventoryCheck(ctx, st.Entities)
	case contractx.IntentLogisticsQuery:
		result, err = d.logisticsQuery(ctx, st.Entities, st.ToolCalls)
	default:
		return nil
	}

	if err != nil {
		switch {
		case errors.Is(err, contractx.ErrMissingEntity):
			log.Warn().Str("intent", st.Intent).Msg("tool dispatch missing required entity")
			result = statex.ToolResult{
				Success: false,
				Message: fmt.Sprintf("缺少必要参数，无法执行%s操作", st.Intent),
			}
		default:
			log.Error().Err(err).Str("intent", st.Intent).Msg("tool dispatch failed")
			result = statex.ToolResult{
				Success: false,
				Message: fmt.Sprintf("%v: %v", contractx.ErrToolExecution, err),
			}
		}
	}

	return &statex.ToolCallRecord{
		Intent:    st.Intent,
		Result:    result,
		Timestamp: d.now().UTC(),
	}
}

func (d *Dispatcher) orderQuery(ctx context.Context, entities map[string]string) (statex.ToolResult, error) {
	orderID := entities[contractx.EntityOrderID]
	if orderID == "" {
		return statex.ToolResult{}, contractx.ErrMissingEntity
	}

	order, err := d.data.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return statex.ToolResult{
			Success: false,
			Message: fmt.Sprintf("未找到订单号为 %s 的订单", orderID),
		}, nil
	}
	if err != nil {
		return statex.ToolResult{}, err
	}
	return statex.ToolResult{
		Success: true,
		Data:    resultData(order),
		Message: "订单查询成功",
	}, nil
}

func (d *Dispatcher) refundRequest(ctx context.Context, entities map[string]string) (statex.ToolResult, error) {
	orderID := entities[contractx.EntityOrderID]
	if orderID == "" {
		return statex.ToolResult{}, contractx.ErrMissingEntity
	}
	reason := entities[contractx.EntityReason]
	if reason == "" {
		reason = DefaultRefundReason
	}

	receipt, err := d.data.FileRefund(ctx, orderID, reason)
	if errors.Is(err, ErrNotFound) {
		return statex.ToolResult{
			Success: false,
			Message: "订单不存在，无法申请退款",
		}, nil
	}
	if err != nil {
		return statex.ToolResult{}, err
	}
	return statex.ToolResult{
		Success: true,
		Data:    resultData(receipt),
		Message: fmt.Sprintf("退款申请已提交，退款单号：%s，预计3-5个工作日内完成审核", receipt.RefundID),
	}, nil
}

func (d *Dispatcher) inventoryCheck(ctx context.Context, entities map[string]string) (statex.ToolResult, error) {
	productName := entities[contractx.EntityProductName]
	if productName == "" {
		return statex.ToolResult{}, contractx.ErrMissingEntity
	}

	item, err := d.data.SearchInventory(ctx, productName)
	if errors.Is(err, ErrNotFound) {
		return statex.ToolResult{
			Success: false,
			Message: fmt.Sprintf("未找到商品：%s", productName),
		}, nil
	}
	if err != nil {
		return statex.ToolResult{}, err
	}
	return statex.ToolResult{
		Success: true,
		Data:    resultData(item),
		Message: "库存查询成功",
	}, nil
}

func (d *Dispatcher) logisticsQuery(ctx context.Context, entities map[string]string, history []statex.ToolCallRecord) (statex.ToolResult, error) {
	trackingNumber := entities[contractx.EntityTrackingNumber]
	if trackingNumber == "" {
		trackingNumber = trackingFromHistory(history)
		if trackingNumber != "" {
			log.Info().Str("tracking_number", trackingNumber).Msg("resolved tracking number from earlier order query")
		}
	}
	if trackingNumber == "" {
		return statex.ToolResult{}, contractx.ErrMissingEntity
	}

	shipment, err := d.data.GetShipment(ctx, trackingNumber)
	if errors.Is(err, ErrNotFound) {
		return statex.ToolResult{
			Success: false,
			Message: fmt.Sprintf("未找到物流单号：%s", trackingNumber),
		}, nil
	}
	if err != nil {
		return statex.ToolResult{}, err
	}
	return statex.ToolResult{
		Success: true,
		Data:    resultData(shipment),
		Message: "物流查询成功",
	}, nil
}

// trackingFromHistory scans the session's tool calls newest-first for the most
// recent successful order query and reuses its tracking number.
func trackingFromHistory(history []statex.ToolCallRecord) string {
	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i]
		if rec.Intent != string(contractx.IntentOrderQuery) || !rec.Result.Success {
			continue
		}
		if tn, ok := rec.Result.Data[contractx.EntityTrackingNumber].(string); ok && tn != "" {
			return tn
		}
	}
	return ""
}

// resultData flattens a record into the loosely-typed map carried by
// ToolCallRecord, matching what the response generator serializes into the
// prompt context.
func resultData(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
