package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/geminichat/ai/format"
)

func TestNewAssistantTurn_LanguageOnlyForCode(t *testing.T) {
	code := NewAssistantTurn(format.Decision{Content: "x := 1", Format: format.FormatCode, Language: "go"})
	assert.Equal(t, RoleAssistant, code.Role)
	assert.Equal(t, "go", code.Language)
	assert.NotEmpty(t, code.ID)

	md := NewAssistantTurn(format.Decision{Content: "# hi\nthere", Format: format.FormatMarkdown, Language: "go"})
	assert.Empty(t, md.Language)
	assert.Equal(t, format.Decision{Content: "# hi\nthere", Format: format.FormatMarkdown}, md.Decision())
}

func TestNewUserTurn(t *testing.T) {
	turn := NewUserTurn("write a function")
	assert.Equal(t, RoleUser, turn.Role)
	assert.Equal(t, format.FormatText, turn.Format)
	assert.False(t, turn.CreatedAt.IsZero())
	assert.NotEqual(t, turn.ID, NewUserTurn("write a function").ID)
}

func TestSession_AppendOnly(t *testing.T) {
	s := newSession("s1")
	s.Append(NewUserTurn("one"))
	s.Append(NewUserTurn("two"))

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "one", turns[0].Content)
	assert.Equal(t, "two", turns[1].Content)

	// mutating the copy leaves the session untouched
	turns[0].Content = "changed"
	assert.Equal(t, "one", s.Turns()[0].Content)
	assert.Equal(t, 2, s.Len())
}

func TestSession_SingleRequestInFlight(t *testing.T) {
	s := newSession("s1")

	require.True(t, s.TryBegin())
	assert.False(t, s.TryBegin(), "second request must be rejected while one is in flight")

	s.End()
	assert.True(t, s.TryBegin())
	s.End()
}

func TestSession_ConcurrentAppend(t *testing.T) {
	s := newSession("s1")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(NewUserTurn("m"))
			_ = s.Turns()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestStore_CreateGet(t *testing.T) {
	st := NewStore(0, 0)
	assert.Equal(t, DefaultCapacity, st.capacity)
	assert.Equal(t, DefaultIdleTTL, st.idleTTL)

	s := st.Create()
	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = st.Get("missing")
	assert.False(t, ok)
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore(10, time.Minute)

	s, ok := st.GetOrCreate("")
	require.True(t, ok)
	assert.NotEmpty(t, s.ID)

	again, ok := st.GetOrCreate(s.ID)
	require.True(t, ok)
	assert.Same(t, s, again)

	_, ok = st.GetOrCreate("unknown")
	assert.False(t, ok)
}

func TestStore_IdleExpiry(t *testing.T) {
	st := NewStore(10, time.Minute)
	now := time.Now()
	st.now = func() time.Time { return now }

	s := st.Create()

	now = now.Add(30 * time.Second)
	_, ok := st.Get(s.ID)
	require.True(t, ok, "access refreshes the deadline")

	now = now.Add(45 * time.Second)
	_, ok = st.Get(s.ID)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())
}

func TestStore_CleanupExpired(t *testing.T) {
	st := NewStore(10, time.Minute)
	now := time.Now()
	st.now = func() time.Time { return now }

	st.Create()
	st.Create()
	now = now.Add(2 * time.Minute)
	fresh := st.Create()

	assert.Equal(t, 2, st.CleanupExpired())
	assert.Equal(t, 1, st.Len())
	_, ok := st.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStore_LRUEviction(t *testing.T) {
	st := NewStore(2, time.Hour)

	a := st.Create()
	b := st.Create()
	_, _ = st.Get(a.ID) // b is now least recently used
	c := st.Create()

	assert.Equal(t, 2, st.Len())
	_, ok := st.Get(b.ID)
	assert.False(t, ok)
	_, ok = st.Get(a.ID)
	assert.True(t, ok)
	_, ok = st.Get(c.ID)
	assert.True(t, ok)
}
