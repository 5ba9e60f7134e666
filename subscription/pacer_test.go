package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerNextOnEmptyQueueReturnsFalseWithoutBlocking(t *testing.T) {
	t.Parallel()
	p := NewDefaultPacer()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok, err := p.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPacerDrainsBurstImmediately(t *testing.T) {
	t.Parallel()
	p := NewPacer(1, 5)
	for i := 0; i < 5; i++ {
		p.Submit(Request{Channel: "book", Symbols: []string{"BTC/USD"}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		_, ok, err := p.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 0, p.Len())
}

func TestPacerThrottlesBeyondBurst(t *testing.T) {
	t.Parallel()
	p := NewPacer(100, 1) // fast refill so the test stays quick
	p.Submit(Request{Channel: "book", Symbols: []string{"BTC/USD"}})
	p.Submit(Request{Channel: "book", Symbols: []string{"ETH/USD"}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok, err := p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	start := time.Now()
	_, ok, err = p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, time.Since(start), time.Millisecond)
}

func TestPacerPreservesFIFOOrder(t *testing.T) {
	t.Parallel()
	p := NewPacer(1000, 10)
	want := []string{"BTC/USD", "ETH/USD", "SOL/USD"}
	for _, s := range want {
		p.Submit(Request{Channel: "book", Symbols: []string{s}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, s := range want {
		req, ok, err := p.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, s, req.Symbols[0])
	}
}

func TestPacerResetDiscardsQueue(t *testing.T) {
	t.Parallel()
	p := NewDefaultPacer()
	p.Submit(Request{Channel: "book", Symbols: []string{"BTC/USD"}})
	p.Submit(Request{Channel: "book", Symbols: []string{"ETH/USD"}})
	p.Reset()
	assert.Equal(t, 0, p.Len())
}

func TestPacerCanceledContextReturnsError(t *testing.T) {
	t.Parallel()
	p := NewPacer(0.001, 1) // effectively never refills within the test window
	p.Submit(Request{Channel: "book", Symbols: []string{"BTC/USD"}})
	p.Submit(Request{Channel: "book", Symbols: []string{"ETH/USD"}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok, err := p.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shortCancel()
	_, _, err = p.Next(shortCtx)
	assert.Error(t, err)
}
