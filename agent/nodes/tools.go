package turnnode

import (
	"context"

	statex "github.com/nanxi-ai/smartcs/agent/state"
	toolx "github.com/nanxi-ai/smartcs/agent/tool"
)

// CallTools dispatches the classified intent to its business operation. The
// record (success or failure) is appended; a failed dispatch never aborts the
// run. Intents without a mapped operation append nothing.
func CallTools(ctx context.Context, in *TurnState, dispatcher *toolx.Dispatcher) statex.Delta {
	rec := dispatcher.Dispatch(ctx, in.Session)
	if rec == nil {
		return statex.Delta{}
	}
	return statex.Delta{ToolCalls: []statex.ToolCallRecord{*rec}}
}
