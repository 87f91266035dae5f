package turnnode

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
	statex "github.com/nanxi-ai/smartcs/agent/state"
	vectorx "github.com/nanxi-ai/smartcs/agent/vector"
)

// fakeGenerator returns scripted replies in order.
type fakeGenerator struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _ []statex.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.calls >= len(f.replies) {
		return "", errors.New("no scripted reply left")
	}
	reply := f.replies[f.calls]
	f.calls++
	return reply, nil
}

func newTurn(text string) *TurnState {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := statex.NewConversationState("s1", "", now)
	st.Apply(statex.Delta{Messages: []statex.Message{statex.NewMessage(statex.RoleUser, text, now)}})
	return &TurnState{Text: text, Now: now, Session: st}
}

func TestClassifyIntentParsesReply(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{
		`{"intent": "order_query", "entities": {"order_id": "ORD001", "reason": "  "}, "confidence": 0.92, "needs_tool": true, "needs_knowledge": false}`,
	}}
	delta, err := ClassifyIntent(context.Background(), newTurn("帮我查一下订单ORD001的状态"), gen)
	if err != nil {
		t.Fatalf("ClassifyIntent: %v", err)
	}
	if delta.Intent == nil || *delta.Intent != "order_query" {
		t.Fatalf("intent = %v", delta.Intent)
	}
	if delta.Entities["order_id"] != "ORD001" {
		t.Fatalf("entities = %v", delta.Entities)
	}
	if _, ok := delta.Entities["reason"]; ok {
		t.Fatalf("blank entity values must be dropped: %v", delta.Entities)
	}
	if delta.Context == nil || !delta.Context.NeedsTool || delta.Context.NeedsKnowledge {
		t.Fatalf("context = %+v", delta.Context)
	}
}

func TestClassifyIntentFallsBackOnGarbage(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{"我不知道该怎么分类这句话。"}}
	delta, err := ClassifyIntent(context.Background(), newTurn("随便聊聊"), gen)
	if err != nil {
		t.Fatalf("unparseable reply must not be an error: %v", err)
	}
	if delta.Intent == nil || *delta.Intent != string(contractx.IntentGeneralChat) {
		t.Fatalf("intent = %v", delta.Intent)
	}
	if delta.Context == nil || delta.Context.NeedsTool || delta.Context.NeedsKnowledge {
		t.Fatalf("fallback context must clear routing flags: %+v", delta.Context)
	}
}

func TestClassifyIntentFallsBackOnEmptyIntent(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{`{"intent": "   ", "needs_tool": true}`}}
	delta, err := ClassifyIntent(context.Background(), newTurn("你好"), gen)
	if err != nil {
		t.Fatalf("ClassifyIntent: %v", err)
	}
	if delta.Intent == nil || *delta.Intent != string(contractx.IntentGeneralChat) {
		t.Fatalf("intent = %v", delta.Intent)
	}
}

func TestClassifyIntentKeepsUnknownIntentValues(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{replies: []string{`{"intent": "price_match", "needs_tool": true}`}}
	delta, err := ClassifyIntent(context.Background(), newTurn("能保价吗"), gen)
	if err != nil {
		t.Fatalf("ClassifyIntent: %v", err)
	}
	if delta.Intent == nil || *delta.Intent != "price_match" {
		t.Fatalf("unknown intents pass through unchanged, got %v", delta.Intent)
	}
}

func TestClassifyIntentPropagatesGenerateError(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("upstream 500")}
	_, err := ClassifyIntent(context.Background(), newTurn("你好"), gen)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

// fakeRetriever scripts search results.
type fakeRetriever struct {
	results []vectorx.Result
	err     error
}

func (f *fakeRetriever) Search(_ context.Context, _ string, _ int, _ float64) ([]vectorx.Result, error) {
	return f.results, f.err
}

func TestRetrieveKnowledge(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{results: []vectorx.Result{
		{Document: "退货政策：7天无理由退货", Distance: 0.2},
		{Document: "运费说明：满99包邮", Distance: 0.8},
	}}
	delta, err := RetrieveKnowledge(context.Background(), newTurn("退货政策是什么"), retriever)
	if err != nil {
		t.Fatalf("RetrieveKnowledge: %v", err)
	}
	if len(delta.RetrievedDocs) != 2 || delta.RetrievedDocs[0] != "退货政策：7天无理由退货" {
		t.Fatalf("docs = %v", delta.RetrievedDocs)
	}
}

func TestRetrieveKnowledgeNilRetrieverOverwritesToEmpty(t *testing.T) {
	t.Parallel()

	delta, err := RetrieveKnowledge(context.Background(), newTurn("退货政策"), nil)
	if err != nil {
		t.Fatalf("RetrieveKnowledge: %v", err)
	}
	if delta.RetrievedDocs == nil || len(delta.RetrievedDocs) != 0 {
		t.Fatalf("expected non-nil empty docs so a stale turn's docs are cleared, got %v", delta.RetrievedDocs)
	}
}

func TestRetrieveKnowledgePropagatesSearchError(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{err: errors.New("embed failed")}
	_, err := RetrieveKnowledge(context.Background(), newTurn("q"), retriever)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetrieveKnowledgeNoHitsOverwritesToEmpty(t *testing.T) {
	t.Parallel()

	delta, err := RetrieveKnowledge(context.Background(), newTurn("q"), &fakeRetriever{})
	if err != nil {
		t.Fatalf("RetrieveKnowledge: %v", err)
	}
	if delta.RetrievedDocs == nil || len(delta.RetrievedDocs) != 0 {
		t.Fatalf("expected non-nil empty docs, got %v", delta.RetrievedDocs)
	}
}
