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

	"protrader/internal/models"
)

// Every subscriber with a large enough buffer receives every published
// quote for its ticker.
func TestProperty_AllSubscribersReceiveQuotes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("all subscribers receive all quotes", prop.ForAll(
		func(subscriberCount, quoteCount int) bool {
			hub := NewHubWithConfig(HubConfig{
				BufferSize:           quoteCount + 1,
				SubscriberBufferSize: quoteCount + 1,
			})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			hub.Start(ctx)
			defer hub.Stop()

			var received int64
			var wg sync.WaitGroup
			for i := 0; i < subscriberCount; i++ {
				ch := hub.SubscribeWithID("GOOG", fmt.Sprintf("sub-%d", i))
				wg.Add(1)
				go func(ch <-chan models.Quote) {
					defer wg.Done()
					for n := 0; n < quoteCount; n++ {
						select {
						case <-ch:
							atomic.AddInt64(&received, 1)
						case <-time.After(5 * time.Second):
							return
						}
					}
				}(ch)
			}

			for n := 0; n < quoteCount; n++ {
				hub.Publish(models.Quote{
					Ticker:    "GOOG",
					Price:     309.00,
					Seq:       uint64(n + 1),
					Timestamp: time.Now(),
				})
			}

			wg.Wait()
			return atomic.LoadInt64(&received) == int64(subscriberCount*quoteCount)
		},
		gen.IntRange(1, 8),
		gen.IntRange(1, 30),
	))

	properties.Property("quotes arrive in publish order per subscriber", prop.ForAll(
		func(quoteCount int) bool {
			hub := NewHubWithConfig(HubConfig{
				BufferSize:           quoteCount + 1,
				SubscriberBufferSize: quoteCount + 1,
			})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			hub.Start(ctx)
			defer hub.Stop()

			ch := hub.Subscribe("TSLA")
			for n := 0; n < quoteCount; n++ {
				hub.Publish(models.Quote{Ticker: "TSLA", Seq: uint64(n + 1)})
			}

			var last uint64
			for n := 0; n < quoteCount; n++ {
				select {
				case q := <-ch:
					if q.Seq <= last {
						return false
					}
					last = q.Seq
				case <-time.After(5 * time.Second):
					return false
				}
			}
			return last == uint64(quoteCount)
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
