package state

// Delta is the partial output of one pipeline stage. Apply merges it into the
// conversation state with field-level policy: Messages and ToolCalls append,
// everything else overwrites when set. Pointer fields distinguish "not
// written" from "written to the zero value"; RetrievedDocs uses nil vs.
// non-nil the same way, so a stage can overwrite to an empty result.
type Delta struct {
	Messages  []Message
	ToolCalls []ToolCallRecord

	Intent          *string
	Entities        map[string]string
	Context         *Context
	RetrievedDocs   []string
	CurrentResponse *string
	RequiresHuman   *bool
	Status          *Status
}

// Apply merges the delta into s in place.
func (s *ConversationState) Apply(d Delta) {
	if s == nil {
		return
	}

	s.Messages = append(s.Messages, d.Messages...)
	s.ToolCalls = append(s.ToolCalls, d.ToolCalls...)

	if d.Intent != nil {
		s.Intent = *d.Intent
	}
	if d.Entities != nil {
		s.Entities = d.Entities
	}
	if d.Context != nil {
		s.Context = *d.Context
	}
	if d.RetrievedDocs != nil {
		s.RetrievedDocs = d.RetrievedDocs
	}
	if d.CurrentResponse != nil {
		s.CurrentResponse = *d.CurrentResponse
	}
	if d.RequiresHuman != nil {
		s.RequiresHuman = *d.RequiresHuman
	}
	if d.Status != nil {
		s.Status = *d.Status
	}
}

/* ------------------------------ Delta helpers ---------------------------- */

func StringPtr(v string) *string { return &v }

func BoolPtr(v bool) *bool { return &v }

func StatusPtr(v Status) *Status { return &v }

func ContextPtr(v Context) *Context { return &v }
