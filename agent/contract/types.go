package contract

// Intent is the coarse category the classifier assigns to a user turn.
type Intent string

const (
	IntentOrderQuery     Intent = "order_query"
	IntentRefundRequest  Intent = "refund_request"
	IntentInventoryCheck Intent = "inventory_check"
	IntentLogisticsQuery Intent = "logistics_query"
	IntentProductInfo    Intent = "product_info"
	IntentGeneralChat    Intent = "general_chat"
)

// KnownIntents lists every intent the classifier is allowed to emit.
var KnownIntents = map[Intent]bool{
	IntentOrderQuery:     true,
	IntentRefundRequest:  true,
	IntentInventoryCheck: true,
	IntentLogisticsQuery: true,
	IntentProductInfo:    true,
	IntentGeneralChat:    true,
}

// Entity slot keys the classifier may fill.
const (
	EntityOrderID        = "order_id"
	EntityProductName    = "product_name"
	EntityTrackingNumber = "tracking_number"
	EntityReason         = "reason"
)

// Classification is the structured result the classifier extracts from the
// generation service's raw reply.
type Classification struct {
	Intent         string            `json:"intent"`
	Entities       map[string]string `json:"entities,omitempty"`
	Confidence     float64           `json:"confidence,omitempty"`
	NeedsTool      bool              `json:"needs_tool"`
	NeedsKnowledge bool              `json:"needs_knowledge"`
}
