package messagelog

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentoffice/core"
)

// Observer is notified of every appended message.
type Observer func(core.Message)

// InMemoryLog is a volatile core.MessageLog. Appends are serialized by a
// writer mutex; readers load an atomically published snapshot and never wait
// for writers. Stored messages are never mutated, so snapshots share one
// backing array and only the slice length grows.
type InMemoryLog struct {
	mu       sync.Mutex
	messages atomic.Pointer[[]core.Message]
	now      func() time.Time

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int
}

// Options configures an InMemoryLog.
type Options struct {
	// Clock stamps messages appended without a timestamp.
	Clock func() time.Time
}

// NewInMemoryLog constructs an empty log.
func NewInMemoryLog(optFns ...func(o *Options)) *InMemoryLog {
	opts := Options{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	l := &InMemoryLog{now: opts.Clock, observers: map[int]Observer{}}
	empty := make([]core.Message, 0, 64)
	l.messages.Store(&empty)

	return l
}

// Append validates msg, assigns the next id (and a timestamp if unset),
// stores it and returns the stored copy. Observers run synchronously under
// the writer lock and therefore see messages in append order; they must not
// call Append themselves.
func (l *InMemoryLog) Append(msg core.Message) (core.Message, error) {
	if err := msg.Validate(); err != nil {
		return core.Message{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur := *l.messages.Load()
	msg.ID = uint64(len(cur)) + 1
	if msg.Timestamp.IsZero() {
		msg.Timestamp = l.now()
	}

	next := append(cur, msg)
	l.messages.Store(&next)

	l.notify(msg)

	return msg, nil
}

// Since returns a copy of all messages with id > cursor.
func (l *InMemoryLog) Since(cursor uint64) []core.Message {
	cur := *l.messages.Load()
	if cursor >= uint64(len(cur)) {
		return []core.Message{}
	}

	return slices.Clone(cur[cursor:])
}

// All returns a copy of the complete history.
func (l *InMemoryLog) All() []core.Message {
	return l.Since(0)
}

// LastID returns the newest id, 0 when empty.
func (l *InMemoryLog) LastID() uint64 {
	return uint64(len(*l.messages.Load()))
}

// Len returns the number of stored messages.
func (l *InMemoryLog) Len() int {
	return len(*l.messages.Load())
}

// Get returns the message with the given id.
func (l *InMemoryLog) Get(id uint64) (core.Message, bool) {
	cur := *l.messages.Load()
	if id == 0 || id > uint64(len(cur)) {
		return core.Message{}, false
	}

	return cur[id-1], true
}

// Subscribe registers an observer and returns a function removing it.
func (l *InMemoryLog) Subscribe(fn Observer) (unsubscribe func()) {
	l.obsMu.Lock()
	defer l.obsMu.Unlock()

	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn

	return func() {
		l.obsMu.Lock()
		defer l.obsMu.Unlock()
		delete(l.observers, id)
	}
}

func (l *InMemoryLog) notify(msg core.Message) {
	l.obsMu.RLock()
	defer l.obsMu.RUnlock()

	for _, fn := range l.observers {
		fn(msg)
	}
}
