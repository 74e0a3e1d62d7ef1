package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lababil/lababil-pos/internal/localstore"
)

func TestBrokerFanOut(t *testing.T) {
	broker := NewBroker()
	ch, cancel := broker.Subscribe()
	defer cancel()

	state := NewState(localstore.NewMemory(), broker, testLogger())
	state.AddProduct(context.Background(), Product{ID: "p1", Name: "Laptop"})

	select {
	case event := <-ch:
		require.Equal(t, "products", event.Collection)
		require.False(t, event.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no change event received")
	}
}

func TestBrokerCancelStopsDelivery(t *testing.T) {
	broker := NewBroker()
	ch, cancel := broker.Subscribe()
	cancel()

	broker.Publish(context.Background(), Event{Collection: "sales"})
	_, open := <-ch
	require.False(t, open)
}

func TestBrokerSlowSubscriberNeverBlocks(t *testing.T) {
	broker := NewBroker()
	_, cancel := broker.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			broker.Publish(context.Background(), Event{Collection: "sales"})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestFlushFailureKeepsMemoryState(t *testing.T) {
	cache := localstore.NewMemory()
	state := NewState(cache, NewBroker(), testLogger())

	cache.FailNext = errors.New("disk full")
	state.AddProduct(context.Background(), Product{ID: "p1", Name: "Laptop"})

	// memory is authoritative; the cache write failure is logged only
	_, ok := state.Product("p1")
	require.True(t, ok)
	_, cached := cache.Get(localstore.KeyData)
	require.False(t, cached)

	// next mutation re-flushes the whole snapshot
	state.AddProduct(context.Background(), Product{ID: "p2", Name: "Mouse"})
	raw, cached := cache.Get(localstore.KeyData)
	require.True(t, cached)
	require.Contains(t, raw, "p1")
	require.Contains(t, raw, "p2")
}

func TestAccessorsReturnCopies(t *testing.T) {
	state := NewState(nil, nil, testLogger())
	state.Replace(context.Background(), Snapshot{
		Products: []Product{{ID: "p1", Name: "Laptop", Stock: 5}},
		Sales:    []Sale{{ID: "s1", Items: []SaleItem{{ProductID: "p1", Qty: 1}}}},
		Settings: DefaultSettings(),
	})

	products := state.Products()
	products[0].Stock = 0
	fresh, _ := state.Product("p1")
	require.Equal(t, 5, fresh.Stock)

	sales := state.Sales()
	sales[0].Items[0].Qty = 99
	again, _ := state.Sale("s1")
	require.Equal(t, 1, again.Items[0].Qty)
}

func TestRecentSalesLimits(t *testing.T) {
	state := NewState(nil, nil, testLogger())
	var sales []Sale
	for _, id := range []string{"s6", "s5", "s4", "s3", "s2", "s1"} {
		sales = append(sales, Sale{ID: id})
	}
	state.Replace(context.Background(), Snapshot{Sales: sales, Settings: DefaultSettings()})

	recent := state.RecentSales(5)
	require.Len(t, recent, 5)
	require.Equal(t, "s6", recent[0].ID)
	require.Equal(t, "s2", recent[4].ID)
}
