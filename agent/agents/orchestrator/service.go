// Package orchestrator runs the five-stage turn pipeline: classify intent,
// then either tool dispatch or knowledge retrieval (never both), then reply
// generation, then the escalation check. The topology is fixed and small, so
// it is coded as a straight pipeline with one branch point rather than a
// general graph engine.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
	turnnode "github.com/nanxi-ai/smartcs/agent/nodes"
	statex "github.com/nanxi-ai/smartcs/agent/state"
	toolx "github.com/nanxi-ai/smartcs/agent/tool"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// Config carries the persona the responder presents.
type Config struct {
	ServiceName string
	CompanyName string
}

// Orchestrator executes one turn per inbound message. Collaborators are
// constructor-injected; there is no hidden process-wide state.
type Orchestrator struct {
	store      *statex.SessionStore
	gen        contractx.Generator
	dispatcher *toolx.Dispatcher
	retriever  turnnode.Retriever // nil means no-retrieval mode
	persona    turnnode.Persona

	now func() time.Time
}

// TurnResult is the outbound contract of a completed turn.
type TurnResult struct {
	Reply         string `json:"response"`
	SessionID     string `json:"session_id"`
	Intent        string `json:"intent,omitempty"`
	RequiresHuman bool   `json:"requires_human"`
}

// New wires the orchestrator. retriever may be nil; everything else is
// required.
func New(
	store *statex.SessionStore,
	gen contractx.Generator,
	dispatcher *toolx.Dispatcher,
	retriever turnnode.Retriever,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if dispatcher == nil {
		return nil, errors.New("tool dispatcher is required")
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "智能客服小助手"
	}
	companyName := strings.TrimSpace(cfg.CompanyName)
	if companyName == "" {
		companyName = "示例科技有限公司"
	}

	return &Orchestrator{
		store:      store,
		gen:        gen,
		dispatcher: dispatcher,
		retriever:  retriever,
		persona:    turnnode.Persona{ServiceName: serviceName, CompanyName: companyName},
		now:        time.Now,
	}, nil
}

// HandleMessage serializes the turn against other runs for the same session,
// loads or creates the state, runs the pipeline, and commits the updated
// state only when the whole run succeeded.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, userID, text string) (TurnResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return TurnResult{}, ErrInvalidSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrInvalidMessage
	}

	release := o.store.Lock(sessionID)
	defer release()

	st, err := o.store.GetOrCreate(sessionID, userID)
	if err != nil {
		return TurnResult{}, err
	}

	reply, updated, err := o.Run(ctx, st, text)
	if err != nil {
		return TurnResult{}, err
	}

	if err := o.store.Put(sessionID, updated); err != nil {
		return TurnResult{}, err
	}

	return TurnResult{
		Reply:         reply,
		SessionID:     sessionID,
		Intent:        updated.Intent,
		RequiresHuman: updated.RequiresHuman,
	}, nil
}

// Run executes exactly one turn over a clone of the given state. On error the
// input state is untouched and nothing is returned for commit.
func (o *Orchestrator) Run(ctx context.Context, st *statex.ConversationState, text string) (string, *statex.ConversationState, error) {
	now := o.now().UTC()
	work := st.Clone()
	in := &turnnode.TurnState{Text: text, Now: now, Session: work}

	work.Apply(statex.Delta{
		Messages: []statex.Message{statex.NewMessage(statex.RoleUser, text, now)},
	})

	delta, err := turnnode.ClassifyIntent(ctx, in, o.gen)
	if err != nil {
		return "", nil, err
	}
	work.Apply(delta)

	// RetrievedDocs reflects only this turn: a turn that does not retrieve
	// still resets the previous turn's results.
	work.Apply(statex.Delta{RetrievedDocs: []string{}})

	// Exactly one of the two branches runs per turn; both rejoin at the
	// response generator.
	switch {
	case work.Context.NeedsTool:
		work.Apply(turnnode.CallTools(ctx, in, o.dispatcher))
	case work.Context.NeedsKnowledge:
		delta, err = turnnode.RetrieveKnowledge(ctx, in, o.retriever)
		if err != nil {
			return "", nil, err
		}
		work.Apply(delta)
	}

	delta, err = turnnode.GenerateResponse(ctx, in, o.gen, o.persona)
	if err != nil {
		return "", nil, err
	}
	work.Apply(delta)

	work.Apply(turnnode.CheckSatisfaction(in))
	work.Touch(now)

	log.Debug().
		Str("session_id", work.SessionID).
		Str("intent", work.Intent).
		Str("status", string(work.Status)).
		Msg("turn completed")

	return work.CurrentResponse, work, nil
}
