package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type counterSource struct {
	n atomic.Int64
}

func (c *counterSource) Snapshot(context.Context) (Snapshot, error) {
	n := c.n.Add(1)
	orders := make([]domain.Order, n)
	return Snapshot{Orders: orders, SalesTotal: decimal.NewFromInt(n)}, nil
}

func collect() (Listener, chan Snapshot) {
	ch := make(chan Snapshot, 16)
	return func(s Snapshot) { ch <- s }, ch
}

func receive(t *testing.T, ch chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return Snapshot{}
	}
}

func TestSubscribe_DeliversImmediatelyAndOnNotify(t *testing.T) {
	ctx := context.Background()
	f := New(&counterSource{})
	defer f.Close()

	l, ch := collect()
	sub, err := f.Subscribe(ctx, "admin-1", l)
	require.NoError(t, err)

	first := receive(t, ch)
	assert.Len(t, first.Orders, 1)

	require.NoError(t, f.Notify(ctx))
	second := receive(t, ch)
	assert.Len(t, second.Orders, 2)

	sub.Stop()
	assert.Equal(t, 0, f.Len())
	assert.NoError(t, sub.Err())
	require.NoError(t, f.Notify(ctx))
	select {
	case <-ch:
		t.Fatal("delivered after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_SameOwnerReplaces(t *testing.T) {
	ctx := context.Background()
	f := New(&counterSource{})
	defer f.Close()

	l1, ch1 := collect()
	sub1, err := f.Subscribe(ctx, "admin", l1)
	require.NoError(t, err)
	receive(t, ch1)

	l2, ch2 := collect()
	_, err = f.Subscribe(ctx, "admin", l2)
	require.NoError(t, err)
	receive(t, ch2)
	assert.Equal(t, 1, f.Len())

	select {
	case <-sub1.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replaced subscription not ended")
	}
	assert.ErrorIs(t, sub1.Err(), ErrReplaced)

	require.NoError(t, f.Notify(ctx))
	receive(t, ch2)
	select {
	case <-ch1:
		t.Fatal("replaced listener still notified")
	case <-time.After(50 * time.Millisecond):
	}

	// stale unsubscribe must not drop the replacement
	sub1.Stop()
	assert.Equal(t, 1, f.Len())
}

func TestSubscribe_SourceError(t *testing.T) {
	f := New(SourceFunc(func(context.Context) (Snapshot, error) {
		return Snapshot{}, errors.New("boom")
	}))
	defer f.Close()
	_, err := f.Subscribe(context.Background(), "a", func(Snapshot) {})
	assert.Error(t, err)
	assert.Equal(t, 0, f.Len())
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	f := New(&counterSource{})
	var subs []*Subscription
	for _, owner := range []string{"a", "b", "c"} {
		sub, err := f.Subscribe(ctx, owner, func(Snapshot) {})
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	assert.Equal(t, 3, f.Len())
	f.Close()
	assert.Equal(t, 0, f.Len())
	for _, sub := range subs {
		<-sub.Done()
		assert.ErrorIs(t, sub.Err(), ErrClosed)
	}

	_, err := f.Subscribe(ctx, "d", func(Snapshot) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNotify_SlowListenerGetsLatest(t *testing.T) {
	ctx := context.Background()
	f := New(&counterSource{})
	defer f.Close()

	release := make(chan struct{})
	got := make(chan Snapshot, 16)
	_, err := f.Subscribe(ctx, "slow", func(s Snapshot) {
		<-release
		got <- s
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, f.Notify(ctx))
	}
	close(release)

	var last Snapshot
	deadline := time.After(2 * time.Second)
	for len(last.Orders) != 6 {
		select {
		case last = <-got:
		case <-deadline:
			t.Fatalf("latest snapshot never delivered, last had %d orders", len(last.Orders))
		}
	}
}
