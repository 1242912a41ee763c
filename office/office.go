package office

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentoffice/agent"
	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/logging"
)

// ErrDuplicateAgent is returned when an agent name is already registered.
var ErrDuplicateAgent = errors.New("duplicate agent name")

// Options configures a Chat.
type Options struct {
	// FollowUpRounds bounds the extra passes dispatched to agents that were
	// addressed directly during a round but had already taken their turn.
	FollowUpRounds int
	// EventBufferSize sets channel buffering for Events.
	EventBufferSize int
	Logger          logging.Logger
}

// Chat is the office: a message log, a roster and the read cursor of every
// agent. Public methods are safe for concurrent use; rounds run one at a
// time.
type Chat struct {
	log    core.MessageLog
	opts   Options
	logger logging.Logger

	mu      sync.RWMutex
	agents  []*agent.Agent
	index   map[string]*agent.Agent
	cursors map[string]uint64

	roundMu     sync.Mutex
	activeMu    sync.Mutex
	activeRound context.CancelFunc

	subMu   sync.RWMutex
	subs    map[int]Handler
	nextSub int
}

// New constructs a Chat over log.
func New(log core.MessageLog, optFns ...func(o *Options)) *Chat {
	opts := Options{
		EventBufferSize: 256,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Chat{
		log:     log,
		opts:    opts,
		logger:  opts.Logger,
		index:   make(map[string]*agent.Agent),
		cursors: make(map[string]uint64),
		subs:    make(map[int]Handler),
	}
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register adds an agent to the roster. Names are unique case-insensitively.
// A new agent starts with its cursor at the end of the log.
func (c *Chat) Register(a *agent.Agent) error {
	if a == nil {
		return fmt.Errorf("nil agent")
	}

	k := key(a.Name())
	if k == core.HumanSender || k == core.SystemSender {
		return fmt.Errorf("%w: %q is reserved", agent.ErrInvalidName, a.Name())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[k]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, a.Name())
	}

	c.agents = append(c.agents, a)
	c.index[k] = a
	c.cursors[k] = c.log.LastID()

	c.logger.Info("office.agent.registered", "agent", a.Name(), "role", a.Role(), "tools", strings.Join(a.Tools(), ","))

	return nil
}

// Agents returns the roster in registration order.
func (c *Chat) Agents() []*agent.Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]*agent.Agent(nil), c.agents...)
}

// Agent looks up an agent by name (case-insensitive).
func (c *Chat) Agent(name string) (*agent.Agent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.index[key(name)]

	return a, ok
}

// Members returns the roster as shown to agents.
func (c *Chat) Members() []agent.Member {
	agents := c.Agents()

	members := make([]agent.Member, len(agents))
	for i, a := range agents {
		members[i] = agent.Member{Name: a.Name(), Role: a.Role()}
	}

	return members
}

// Cursor returns the id of the last message the agent has processed.
func (c *Chat) Cursor(name string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cursors[key(name)]
}

// advance moves a cursor forward; cursors never move back.
func (c *Chat) advance(name string, to uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(name)
	if to > c.cursors[k] {
		c.cursors[k] = to
	}

	return c.cursors[k]
}

// History returns the full ordered log.
func (c *Chat) History() []core.Message { return c.log.All() }

// Since returns messages with id > cursor.
func (c *Chat) Since(cursor uint64) []core.Message { return c.log.Since(cursor) }

// Log returns the underlying message log.
func (c *Chat) Log() core.MessageLog { return c.log }

// UpdatePersona replaces an agent's persona template.
func (c *Chat) UpdatePersona(name, text string) error {
	a, ok := c.Agent(name)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownAgent, name)
	}

	return a.UpdatePersona(text)
}

// resolveRecipient canonicalizes a recipient name.
func (c *Chat) resolveRecipient(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}

	if strings.EqualFold(strings.TrimSpace(name), core.HumanSender) {
		return core.HumanSender, nil
	}

	a, ok := c.Agent(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrUnknownAgent, strings.TrimSpace(name))
	}

	return a.Name(), nil
}

// Post broadcasts content from sender and runs a round. An empty sender
// posts as the human user.
func (c *Chat) Post(ctx context.Context, sender, content string) (RoundResult, error) {
	if strings.TrimSpace(sender) == "" {
		sender = core.HumanSender
	}

	return c.Send(ctx, core.Message{Sender: sender, Content: content})
}

// Ask addresses content from the human user directly to one agent and runs
// a round. Only the recipient (and observers) run inference.
func (c *Chat) Ask(ctx context.Context, recipient, content string) (RoundResult, error) {
	if strings.TrimSpace(recipient) == "" {
		return RoundResult{}, fmt.Errorf("%w: empty recipient", core.ErrUnknownAgent)
	}

	return c.Send(ctx, core.Message{Sender: core.HumanSender, Recipient: recipient, Content: content})
}

// Send appends msg and dispatches a round for it. The error is non-nil only
// when the message could not be appended; turn failures and cancellation are
// reported in the RoundResult.
func (c *Chat) Send(ctx context.Context, msg core.Message) (RoundResult, error) {
	if err := ctx.Err(); err != nil {
		return RoundResult{}, err
	}

	recipient, err := c.resolveRecipient(msg.Recipient)
	if err != nil {
		return RoundResult{}, err
	}
	msg.Recipient = recipient

	c.roundMu.Lock()
	defer c.roundMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.activeMu.Lock()
	c.activeRound = cancel
	c.activeMu.Unlock()

	defer func() {
		c.activeMu.Lock()
		c.activeRound = nil
		c.activeMu.Unlock()
	}()

	trigger, err := c.log.Append(msg)
	if err != nil {
		return RoundResult{}, fmt.Errorf("append trigger: %w", err)
	}

	return c.dispatch(ctx, trigger), nil
}

// Abort cancels the round in flight, if any. It reports whether a round was
// running.
func (c *Chat) Abort() bool {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()

	if c.activeRound == nil {
		return false
	}

	c.activeRound()

	return true
}

// Subscribe registers a handler for office events and returns a function
// removing it.
func (c *Chat) Subscribe(h Handler) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = h

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// Events streams office events until ctx is done. Events are dropped when
// the consumer falls more than EventBufferSize events behind.
func (c *Chat) Events(ctx context.Context) <-chan Event {
	ch := make(chan Event, c.opts.EventBufferSize)

	unsubscribe := c.Subscribe(func(ev Event) {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("office.events.dropped", "kind", string(ev.Kind), "round_id", ev.RoundID)
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		close(ch)
	}()

	return ch
}

func (c *Chat) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, h := range c.subs {
		h(ev)
	}
}

func newRoundID() string { return uuid.NewString() }
