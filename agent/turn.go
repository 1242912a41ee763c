package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/model"
)

// Sink receives streamed model text for the running turn.
type Sink func(token string)

// TurnInput carries everything a turn needs. The agent reads the log, never
// mutates it directly, and posts only through Poster.
type TurnInput struct {
	Log     core.MessageLog
	Cursor  uint64
	Trigger core.Message
	// Poster receives the turn's posts. Defaults to Log.
	Poster  core.Appender
	Sink    Sink
	RoundID string
	// Members is the office roster shown to the model.
	Members []Member
}

// TurnResult describes how a turn ended.
type TurnResult struct {
	Agent    string          `json:"agent"`
	Decision core.Decision   `json:"decision"`
	Steps    []core.Decision `json:"steps,omitempty"`
	Posted   []core.Message  `json:"posted,omitempty"`
	// Cursor is the read position after the turn. Equal to the input cursor
	// when the turn was discarded.
	Cursor   uint64        `json:"cursor"`
	Skipped  bool          `json:"skipped,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Completed reports whether the turn reached a terminal decision. Turns with
// a loop bound diagnostic still count as completed.
func (r TurnResult) Completed() bool {
	return r.Decision.Terminal() && (r.Err == nil || errors.Is(r.Err, core.ErrLoopBoundExceeded))
}

// Turn runs the decision loop once for the given trigger.
//
// Inference failures and cancellation discard the turn: nothing further is
// posted and the cursor is returned unchanged. A message already posted when
// cancellation hits still ends the turn as a post. Exceeding MaxSteps ends
// the turn with NoResponse and an ErrLoopBoundExceeded diagnostic; the
// cursor advances.
func (a *Agent) Turn(ctx context.Context, in TurnInput) TurnResult {
	res := TurnResult{Agent: a.name, Cursor: in.Cursor}

	if !a.busy.CompareAndSwap(false, true) {
		res.Err = fmt.Errorf("%w: %s", core.ErrAgentBusy, a.name)
		return res
	}
	defer a.busy.Store(false)

	start := time.Now()

	if in.Log == nil {
		res.Err = fmt.Errorf("agent %s: message log is required", a.name)
		return res
	}

	poster := in.Poster
	if poster == nil {
		poster = in.Log
	}

	persona, err := a.Instructions()
	if err != nil {
		res.Err = fmt.Errorf("agent %s: %w", a.name, err)
		return res
	}

	snapshot := in.Log.All()
	seen := in.Cursor
	if n := len(snapshot); n > 0 {
		seen = max(seen, snapshot[n-1].ID)
	}

	req := model.Request{
		Instructions: a.buildInstructions(persona, in.Members),
		Contents:     a.buildContents(snapshot, in.Cursor, in.Trigger),
		Tools:        a.registry.Definitions(),
		Stream:       a.opts.Streaming && in.Sink != nil,
	}

	a.logger.Info("agent.turn.start",
		"agent", a.name,
		"round_id", in.RoundID,
		"cursor", in.Cursor,
		"trigger_id", in.Trigger.ID,
		"history", len(req.Contents)-1,
	)

	var onPartial func(string)
	if req.Stream {
		onPartial = in.Sink
	}

	limiter := core.NewStepLimiter(a.opts.MaxSteps)

	finish := func(d core.Decision, diag error) TurnResult {
		res.Decision = d
		res.Err = diag
		res.Duration = time.Since(start)
		res.Cursor = seen
		for _, m := range res.Posted {
			res.Cursor = max(res.Cursor, m.ID)
		}

		a.logger.Info("agent.turn.end",
			"agent", a.name,
			"round_id", in.RoundID,
			"decision", d.Kind.String(),
			"steps", limiter.Count(),
			"posted", len(res.Posted),
			"cursor", res.Cursor,
		)

		return res
	}

	discard := func(err error) TurnResult {
		res.Err = err
		res.Cursor = in.Cursor
		for _, m := range res.Posted {
			res.Cursor = max(res.Cursor, m.ID)
		}
		res.Duration = time.Since(start)
		a.logger.Warn("agent.turn.aborted", "agent", a.name, "round_id", in.RoundID, "error", err.Error())
		return res
	}

	for {
		if err := limiter.Increment(); err != nil {
			a.logger.Warn("agent.turn.loop_bound", "agent", a.name, "round_id", in.RoundID, "max_steps", a.opts.MaxSteps)
			return finish(core.Decision{Kind: core.DecisionNoResponse, Reason: "step limit reached"}, err)
		}

		if err := ctx.Err(); err != nil {
			return discard(err)
		}

		resp, err := model.Collect(ctx, a.llm, req, onPartial)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return discard(ctxErr)
			}
			return discard(fmt.Errorf("%w: %s: %v", core.ErrInferenceUnavailable, a.name, err))
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			text := strings.TrimSpace(resp.Content.Text())
			if text == "" {
				return finish(core.Decision{Kind: core.DecisionNoResponse, Reason: "empty reply"}, nil)
			}

			msg, err := poster.Append(core.Message{Sender: a.name, Recipient: replyTo(a.name, in.Trigger), Content: text})
			if err != nil {
				return finish(core.Decision{Kind: core.DecisionNoResponse, Reason: "post failed"}, fmt.Errorf("agent %s: post reply: %w", a.name, err))
			}

			res.Posted = append(res.Posted, msg)

			return finish(core.Decision{Kind: core.DecisionPost, Content: msg.Content, Recipient: msg.Recipient}, nil)
		}

		req.Contents = append(req.Contents, resp.Content)

		results := core.Content{Role: core.RoleTool}

		for _, call := range calls {
			inv := a.registry.Invoke(ctx, core.ToolContextConfig{
				AgentName: a.name,
				RoundID:   in.RoundID,
				CallID:    call.ID,
				Appender:  poster,
				Logger:    a.logger,
			}, call)

			res.Posted = append(res.Posted, inv.Actions.Posted...)

			if !inv.Result.Success {
				a.logger.Warn("agent.turn.tool_failed",
					"agent", a.name,
					"tool", call.Name,
					"code", inv.Result.Code,
					"error", inv.Result.Error,
				)
			}

			// A post is durable once appended, so it ends the turn even when
			// the round was aborted meanwhile.
			switch {
			case len(inv.Actions.Posted) > 0:
				last := inv.Actions.Posted[len(inv.Actions.Posted)-1]
				return finish(core.Decision{Kind: core.DecisionPost, Content: last.Content, Recipient: last.Recipient, Call: &call}, nil)
			case inv.Actions.NoResponse:
				return finish(core.Decision{Kind: core.DecisionNoResponse, Reason: inv.Actions.Reason, Call: &call}, nil)
			}

			if err := ctx.Err(); err != nil {
				return discard(err)
			}

			res.Steps = append(res.Steps, core.Decision{Kind: core.DecisionToolInvoke, Call: &call})

			fr := core.FunctionResponse{ID: call.ID, Name: call.Name, Response: inv.Result.Response()}
			if !inv.Result.Success {
				fr.Error = inv.Result.Error
			}

			results.Parts = append(results.Parts, core.FunctionResponsePart{FunctionResponse: fr})
		}

		req.Contents = append(req.Contents, results)
	}
}

// replyTo picks the recipient of an implicit post: the sender of a direct
// trigger, otherwise everyone.
func replyTo(name string, trigger core.Message) string {
	if trigger.AddressedTo(name) && !trigger.From(name) {
		return trigger.Sender
	}
	return ""
}
