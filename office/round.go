package office

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentoffice/agent"
	"github.com/hupe1980/agentoffice/core"
)

// roundPoster is the appender handed to agents during a round. It resolves
// recipients against the roster and records what was posted.
type roundPoster struct {
	chat    *Chat
	roundID string

	mu     sync.Mutex
	posted []core.Message
}

func (p *roundPoster) Append(msg core.Message) (core.Message, error) {
	recipient, err := p.chat.resolveRecipient(msg.Recipient)
	if err != nil {
		return core.Message{}, err
	}
	msg.Recipient = recipient

	stored, err := p.chat.log.Append(msg)
	if err != nil {
		return core.Message{}, err
	}

	p.mu.Lock()
	p.posted = append(p.posted, stored)
	p.mu.Unlock()

	p.chat.emit(Event{Kind: EventMessagePosted, RoundID: p.roundID, Agent: stored.Sender, Message: &stored})

	return stored, nil
}

func (p *roundPoster) since(n int) []core.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]core.Message(nil), p.posted[n:]...)
}

func (p *roundPoster) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.posted)
}

// needsTurn reports whether any unseen message authored by someone else
// concerns the agent, and returns the most relevant one as the trigger.
func needsTurn(a *agent.Agent, unseen []core.Message) (core.Message, bool) {
	var (
		trigger core.Message
		found   bool
	)

	for _, m := range unseen {
		if m.From(a.Name()) {
			continue
		}

		switch {
		case m.AddressedTo(a.Name()):
			trigger, found = m, true
		case m.IsBroadcast() || a.Observer():
			if !found || !trigger.AddressedTo(a.Name()) {
				trigger, found = m, true
			}
		}
	}

	return trigger, found
}

func (c *Chat) dispatch(ctx context.Context, trigger core.Message) RoundResult {
	res := RoundResult{ID: newRoundID(), Trigger: trigger}
	poster := &roundPoster{chat: c, roundID: res.ID}

	c.logger.Info("office.round.start",
		"round_id", res.ID,
		"trigger_id", trigger.ID,
		"sender", trigger.Sender,
		"recipient", trigger.Recipient,
	)

	c.emit(Event{Kind: EventRoundStarted, RoundID: res.ID, Agent: trigger.Sender, Message: &trigger})
	c.emit(Event{Kind: EventMessagePosted, RoundID: res.ID, Agent: trigger.Sender, Message: &trigger})

	targets := c.Agents()

	for {
		res.Passes++
		mark := poster.count()

		if !c.runPass(ctx, &res, poster, targets, res.Passes == 1) {
			break
		}

		if res.Passes > c.opts.FollowUpRounds {
			break
		}

		targets = c.followUpTargets(poster.since(mark))
		if len(targets) == 0 {
			break
		}

		c.logger.Info("office.round.follow_up", "round_id", res.ID, "pass", res.Passes+1, "agents", len(targets))
	}

	res.Posted = poster.since(0)
	if res.Err != nil {
		res.Error = res.Err.Error()
	}

	c.logger.Info("office.round.end",
		"round_id", res.ID,
		"turns", len(res.Turns),
		"posted", len(res.Posted),
		"passes", res.Passes,
		"aborted", res.Err != nil,
	)

	c.emit(Event{Kind: EventRoundFinished, RoundID: res.ID, Error: res.Error})

	return res
}

// runPass offers one turn to each target in order. It returns false when the
// round was cancelled.
func (c *Chat) runPass(ctx context.Context, res *RoundResult, poster *roundPoster, targets []*agent.Agent, first bool) bool {
	for _, a := range targets {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return false
		}

		name := a.Name()
		cursor := c.Cursor(name)
		unseen := c.log.Since(cursor)

		last := cursor
		if n := len(unseen); n > 0 {
			last = unseen[n-1].ID
		}

		if first && res.Trigger.From(name) {
			res.Turns = append(res.Turns, agent.TurnResult{Agent: name, Skipped: true, Cursor: c.advance(name, last)})
			c.logger.Debug("office.turn.skipped", "round_id", res.ID, "agent", name, "reason", "sender")
			continue
		}

		trigger, ok := needsTurn(a, unseen)
		if !ok {
			res.Turns = append(res.Turns, agent.TurnResult{Agent: name, Skipped: true, Cursor: c.advance(name, last)})
			c.logger.Debug("office.turn.skipped", "round_id", res.ID, "agent", name, "reason", "not addressed")
			continue
		}

		c.emit(Event{Kind: EventTurnStarted, RoundID: res.ID, Agent: name, Message: &trigger})

		tr := a.Turn(ctx, agent.TurnInput{
			Log:     c.log,
			Cursor:  cursor,
			Trigger: trigger,
			Poster:  poster,
			RoundID: res.ID,
			Members: c.Members(),
			Sink: func(token string) {
				c.emit(Event{Kind: EventToken, RoundID: res.ID, Agent: name, Token: token})
			},
		})

		tr.Cursor = c.advance(name, tr.Cursor)
		res.Turns = append(res.Turns, tr)

		if ctxErr := ctx.Err(); ctxErr != nil && tr.Err != nil && errors.Is(tr.Err, ctxErr) {
			c.emit(Event{Kind: EventTurnFailed, RoundID: res.ID, Agent: name, Turn: &tr, Error: tr.Err.Error()})
			res.Err = ctxErr
			return false
		}

		if !tr.Completed() {
			c.logger.Error("office.turn.failed", "round_id", res.ID, "agent", name, "error", tr.Err)
			c.emit(Event{Kind: EventTurnFailed, RoundID: res.ID, Agent: name, Turn: &tr, Error: errString(tr.Err)})
			continue
		}

		if tr.Err != nil {
			c.logger.Warn("office.turn.diagnostic", "round_id", res.ID, "agent", name, "error", tr.Err)
		}

		c.emit(Event{Kind: EventTurnFinished, RoundID: res.ID, Agent: name, Turn: &tr})
	}

	return true
}

// followUpTargets returns, in roster order, the agents directly addressed by
// posts they have not processed yet.
func (c *Chat) followUpTargets(posts []core.Message) []*agent.Agent {
	var targets []*agent.Agent

	for _, a := range c.Agents() {
		cursor := c.Cursor(a.Name())
		for _, m := range posts {
			if m.ID > cursor && m.AddressedTo(a.Name()) && !m.From(a.Name()) {
				targets = append(targets, a)
				break
			}
		}
	}

	return targets
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
