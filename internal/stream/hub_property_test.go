package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tradedesk/internal/store"
)

// Fan-out completeness: with buffers sized past the event count, every
// subscriber sees every published event.
func TestProperty_AllSubscribersReceiveAllEvents(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0

	properties := gopter.NewProperties(parameters)

	properties.Property("Every fast subscriber receives every event", prop.ForAll(
		func(subscriberCount, eventCount int) bool {
			config := HubConfig{
				BufferSize:           1000,
				SubscriberBufferSize: 100,
				BroadcastTimeout:     100 * time.Millisecond,
			}
			hub := NewHubWithConfig(config)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			source := make(chan store.ChangeEvent, eventCount)
			hub.Start(ctx, source)
			defer hub.Stop()

			channels := make([]<-chan store.ChangeEvent, subscriberCount)
			for i := 0; i < subscriberCount; i++ {
				ch, err := hub.Subscribe(fmt.Sprintf("sub-%d", i))
				if err != nil {
					t.Logf("subscribe failed: %v", err)
					return false
				}
				channels[i] = ch
			}

			var wg sync.WaitGroup
			received := make([]int64, subscriberCount)
			for i := 0; i < subscriberCount; i++ {
				wg.Add(1)
				go func(idx int, ch <-chan store.ChangeEvent) {
					defer wg.Done()
					timeout := time.After(5 * time.Second)
					for {
						select {
						case _, ok := <-ch:
							if !ok {
								return
							}
							if atomic.AddInt64(&received[idx], 1) >= int64(eventCount) {
								return
							}
						case <-timeout:
							return
						}
					}
				}(i, channels[i])
			}

			for i := 0; i < eventCount; i++ {
				source <- store.ChangeEvent{
					Op:     store.OpInsert,
					Entity: store.EntityTrade,
					ID:     fmt.Sprintf("ev-%d", i),
					At:     time.Now(),
				}
			}

			wg.Wait()
			for i := 0; i < subscriberCount; i++ {
				if atomic.LoadInt64(&received[i]) != int64(eventCount) {
					t.Logf("subscriber %d received %d of %d events", i, received[i], eventCount)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
