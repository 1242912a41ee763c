package messagelog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.MessageLog = (*InMemoryLog)(nil)

func TestInMemoryLog_AppendAssignsMonotonicIDs(t *testing.T) {
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	l := NewInMemoryLog(func(o *Options) { o.Clock = func() time.Time { return fixed } })

	m1, err := l.Append(core.Message{Sender: "human", Content: "hello"})
	require.NoError(t, err)
	m2, err := l.Append(core.Message{Sender: "Roger", Recipient: "Peter", Content: "hi"})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), m1.ID)
	assert.Equal(t, uint64(2), m2.ID)
	assert.Equal(t, fixed, m1.Timestamp)
	assert.Equal(t, uint64(2), l.LastID())
	assert.Equal(t, 2, l.Len())

	got, ok := l.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Peter", got.Recipient)
	_, ok = l.Get(3)
	assert.False(t, ok)
}

func TestInMemoryLog_AppendRejectsInvalid(t *testing.T) {
	l := NewInMemoryLog()

	_, err := l.Append(core.Message{Content: "no sender"})
	assert.ErrorIs(t, err, core.ErrInvalidMessage)
	_, err = l.Append(core.Message{Sender: "human"})
	assert.ErrorIs(t, err, core.ErrInvalidMessage)
	assert.Equal(t, 0, l.Len())
}

func TestInMemoryLog_Since(t *testing.T) {
	l := NewInMemoryLog()
	for i := 0; i < 5; i++ {
		_, err := l.Append(core.Message{Sender: "human", Content: fmt.Sprintf("m%d", i+1)})
		require.NoError(t, err)
	}

	assert.Len(t, l.Since(0), 5)
	tail := l.Since(3)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(4), tail[0].ID)
	assert.Equal(t, uint64(5), tail[1].ID)
	assert.Empty(t, l.Since(5))
	assert.Empty(t, l.Since(100))

	// Idempotent without intervening appends.
	assert.Equal(t, l.Since(2), l.Since(2))
	assert.Equal(t, l.All(), l.Since(0))
}

func TestInMemoryLog_ReturnedSlicesAreCopies(t *testing.T) {
	l := NewInMemoryLog()
	_, err := l.Append(core.Message{Sender: "human", Content: "original"})
	require.NoError(t, err)

	all := l.All()
	all[0].Content = "tampered"
	_ = append(all, core.Message{Sender: "x", Content: "y"})

	assert.Equal(t, "original", l.All()[0].Content)
	assert.Equal(t, 1, l.Len())
}

func TestInMemoryLog_ConcurrentAppendsAndReads(t *testing.T) {
	l := NewInMemoryLog()
	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := l.Append(core.Message{Sender: fmt.Sprintf("w%d", w), Content: "x"})
				assert.NoError(t, err)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				msgs := l.All()
				for j, m := range msgs {
					assert.Equal(t, uint64(j+1), m.ID)
				}
			}
		}()
	}
	wg.Wait()

	all := l.All()
	require.Len(t, all, writers*perWriter)
	for i, m := range all {
		assert.Equal(t, uint64(i+1), m.ID)
	}
}

func TestInMemoryLog_Subscribe(t *testing.T) {
	l := NewInMemoryLog()
	var seen []uint64
	unsubscribe := l.Subscribe(func(m core.Message) { seen = append(seen, m.ID) })

	_, _ = l.Append(core.Message{Sender: "human", Content: "a"})
	_, _ = l.Append(core.Message{Sender: "human", Content: "b"})
	unsubscribe()
	_, _ = l.Append(core.Message{Sender: "human", Content: "c"})

	assert.Equal(t, []uint64{1, 2}, seen)
}
