package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareIsIdempotentByKey(t *testing.T) {
	t.Parallel()
	r := New()
	req := Request{Channel: "book", Symbols: []string{"BTC/USD"}, Params: map[string]string{"depth": "10"}}

	key1, isNew1 := r.Declare(req)
	key2, isNew2 := r.Declare(req)

	assert.True(t, isNew1)
	assert.False(t, isNew2)
	assert.Equal(t, key1, key2)
	assert.Equal(t, 1, r.Len())
}

func TestKeyOfIgnoresSymbolOrder(t *testing.T) {
	t.Parallel()
	a := Request{Channel: "book", Symbols: []string{"ETH/USD", "BTC/USD"}}
	b := Request{Channel: "book", Symbols: []string{"BTC/USD", "ETH/USD"}}
	assert.Equal(t, KeyOf(a), KeyOf(b))
}

func TestKeyOfDistinguishesParams(t *testing.T) {
	t.Parallel()
	a := Request{Channel: "book", Symbols: []string{"BTC/USD"}, Params: map[string]string{"depth": "10"}}
	b := Request{Channel: "book", Symbols: []string{"BTC/USD"}, Params: map[string]string{"depth": "25"}}
	assert.NotEqual(t, KeyOf(a), KeyOf(b))
}

func TestOnAckAndOnNackTransitions(t *testing.T) {
	t.Parallel()
	r := New()
	req := Request{Channel: "book", Symbols: []string{"BTC/USD"}}
	key, _ := r.Declare(req)

	status, _, ok := r.Status(key)
	require.True(t, ok)
	assert.Equal(t, Pending, status)

	require.True(t, r.OnAck(key, 42))
	status, _, ok = r.Status(key)
	require.True(t, ok)
	assert.Equal(t, Confirmed, status)

	require.True(t, r.OnNack(key, "unsupported symbol"))
	status, reason, ok := r.Status(key)
	require.True(t, ok)
	assert.Equal(t, Rejected, status)
	assert.Equal(t, "unsupported symbol", reason)
}

func TestOnAckUnknownKeyReportsFalse(t *testing.T) {
	t.Parallel()
	r := New()
	assert.False(t, r.OnAck(Key("nope"), 1))
	assert.False(t, r.OnNack(Key("nope"), "nope"))
}

func TestFindReturnsDeclaredRequestWithParams(t *testing.T) {
	t.Parallel()
	r := New()
	declared := Request{
		Channel: "book",
		Symbols: []string{"BTC/USD", "ETH/USD"},
		Params:  map[string]string{"depth": "100"},
	}
	r.Declare(declared)

	got, ok := r.Find("book", "ETH/USD")
	require.True(t, ok)
	assert.Equal(t, declared, got)

	_, ok = r.Find("book", "SOL/USD")
	assert.False(t, ok)
	_, ok = r.Find("trade", "BTC/USD")
	assert.False(t, ok)
}

func TestUndeclareRemovesEntry(t *testing.T) {
	t.Parallel()
	r := New()
	key, _ := r.Declare(Request{Channel: "book", Symbols: []string{"BTC/USD"}})
	r.Undeclare(key)
	_, _, ok := r.Status(key)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestReplayResetsAllToPendingAndReturnsEveryRequest(t *testing.T) {
	t.Parallel()
	r := New()
	key1, _ := r.Declare(Request{Channel: "book", Symbols: []string{"BTC/USD"}})
	key2, _ := r.Declare(Request{Channel: "book", Symbols: []string{"ETH/USD"}})
	require.True(t, r.OnAck(key1, 1))
	require.True(t, r.OnAck(key2, 2))

	reqs := r.Replay()
	assert.Len(t, reqs, 2)

	status1, _, _ := r.Status(key1)
	status2, _, _ := r.Status(key2)
	assert.Equal(t, Pending, status1)
	assert.Equal(t, Pending, status2)
}
