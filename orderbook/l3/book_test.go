package l3

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitakshiA/havklo/common"
	"github.com/hitakshiA/havklo/orderbook"
	"github.com/hitakshiA/havklo/quote"
)

func d(s string) quote.Decimal { return decimal.RequireFromString(s) }

func mustL3(t *testing.T) *Book {
	t.Helper()
	b, err := New("BTC/USD", quote.Depth10, quote.PrecisionTable{})
	require.NoError(t, err)
	return b
}

// TestQueuePositionAndAggregation reproduces the worked scenario: A/B/C
// resting at 100 on the bid side with qty 1/2/3, in that arrival order.
func TestQueuePositionAndAggregation(t *testing.T) {
	t.Parallel()
	b := mustL3(t)

	for _, o := range []Order{
		{OrderID: "A", Side: orderbook.Bid, Price: d("100"), Qty: d("1")},
		{OrderID: "B", Side: orderbook.Bid, Price: d("100"), Qty: d("2")},
		{OrderID: "C", Side: orderbook.Bid, Price: d("100"), Qty: d("3")},
	} {
		require.NoError(t, b.Add(o), "Add(%s)", o.OrderID)
	}

	qp, ok := b.QueuePosition("B")
	require.True(t, ok)
	assert.Equal(t, 1, qp.Position)
	assert.Equal(t, 1, qp.OrdersAhead)
	assert.True(t, qp.QtyAhead.Equal(d("1")))
	assert.InDelta(t, 2.0/3.0, qp.FillProbability, 1e-9)

	bids := b.AggregatedBids()
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Price.Equal(d("100")))
	assert.True(t, bids[0].Qty.Equal(d("6")))
}

func TestAddRejectsDuplicateOrderID(t *testing.T) {
	t.Parallel()
	b := mustL3(t)
	o := Order{OrderID: "A", Side: orderbook.Bid, Price: d("100"), Qty: d("1")}
	require.NoError(t, b.Add(o))
	assert.ErrorIs(t, b.Add(o), common.ErrOrderExists)
}

func TestModifyReducesQtyPreservingQueuePosition(t *testing.T) {
	t.Parallel()
	b := mustL3(t)
	for _, o := range []Order{
		{OrderID: "A", Side: orderbook.Bid, Price: d("100"), Qty: d("1")},
		{OrderID: "B", Side: orderbook.Bid, Price: d("100"), Qty: d("2")},
	} {
		require.NoError(t, b.Add(o))
	}
	require.NoError(t, b.Modify("B", d("0.5")))

	qp, ok := b.QueuePosition("B")
	require.True(t, ok)
	assert.Equal(t, 1, qp.Position)

	bids := b.AggregatedBids()
	require.NotEmpty(t, bids)
	assert.True(t, bids[0].Qty.Equal(d("1.5")))
}

func TestModifyZeroQtyDeletesOrder(t *testing.T) {
	t.Parallel()
	b := mustL3(t)
	require.NoError(t, b.Add(Order{OrderID: "A", Side: orderbook.Bid, Price: d("100"), Qty: d("1")}))
	require.NoError(t, b.Modify("A", d("0")))

	_, ok := b.QueuePosition("A")
	assert.False(t, ok, "expected order to be gone after zero-qty modify")
	assert.Empty(t, b.AggregatedBids())
}

func TestModifyQtyIncreaseIsProtocolViolation(t *testing.T) {
	t.Parallel()
	b := mustL3(t)
	require.NoError(t, b.Add(Order{OrderID: "A", Side: orderbook.Bid, Price: d("100"), Qty: d("1")}))
	assert.ErrorIs(t, b.Modify("A", d("5")), common.ErrQtyIncrease)
	assert.Equal(t, orderbook.Desynced, b.State())
}

func TestDeleteRemovesEmptyBucket(t *testing.T) {
	t.Parallel()
	b := mustL3(t)
	require.NoError(t, b.Add(Order{OrderID: "A", Side: orderbook.Bid, Price: d("100"), Qty: d("1")}))
	require.NoError(t, b.Delete("A"))
	assert.Empty(t, b.sides[orderbook.Bid].buckets, "expected empty bucket to be removed")
	assert.ErrorIs(t, b.Delete("A"), common.ErrOrderNotFound)
}

func TestAggregatedAsksAscendingAcrossPrices(t *testing.T) {
	t.Parallel()
	b := mustL3(t)
	for _, o := range []Order{
		{OrderID: "X", Side: orderbook.Ask, Price: d("101"), Qty: d("1")},
		{OrderID: "Y", Side: orderbook.Ask, Price: d("100"), Qty: d("2")},
	} {
		require.NoError(t, b.Add(o))
	}
	asks := b.AggregatedAsks()
	require.Len(t, asks, 2)
	assert.True(t, asks[0].Price.Equal(d("100")))
	assert.True(t, asks[1].Price.Equal(d("101")))
}

func TestChecksumMatchesL2EngineOverAggregatedView(t *testing.T) {
	t.Parallel()
	b := mustL3(t)
	require.NoError(t, b.Add(Order{OrderID: "A", Side: orderbook.Bid, Price: d("99"), Qty: d("1")}))
	require.NoError(t, b.Add(Order{OrderID: "B", Side: orderbook.Ask, Price: d("100"), Qty: d("2")}))
	assert.Equal(t, b.Checksum(), b.Checksum(), "Checksum must be deterministic")

	l2, err := orderbook.New("BTC/USD", quote.Depth10, quote.PrecisionTable{})
	require.NoError(t, err)
	mismatch, err := l2.ApplySnapshot(orderbook.Snapshot{
		Symbol:   "BTC/USD",
		Bids:     []quote.Level{quote.NewLevel(d("99"), d("1"))},
		Asks:     []quote.Level{quote.NewLevel(d("100"), d("2"))},
		Checksum: b.Checksum(),
	})
	require.NoError(t, err)
	assert.Nil(t, mismatch, "L2 engine must accept the L3 checksum for the same levels")
}
