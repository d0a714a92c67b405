package distributor

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/cpuwatch/internal/snapshot"
)

// TestSubscriberOrdering_PropertyBased verifies that, whatever the number of
// publishes and however slowly a subscriber reads, it observes strictly
// increasing sequence numbers and always catches up with the latest one.
func TestSubscriberOrdering_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	for _, strategy := range Strategies() {
		properties.Property(string(strategy)+" delivers strictly increasing sequence numbers", prop.ForAll(
			func(publishes int, readEvery int) bool {
				d, err := New(strategy)
				if err != nil {
					return false
				}
				defer d.Close()

				sub, err := d.Subscribe()
				if err != nil {
					return false
				}

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				var last uint64
				for i := 1; i <= publishes; i++ {
					if err := d.Publish(snap(i, float64(i%101))); err != nil {
						t.Logf("Publish(%d): %v", i, err)
						return false
					}
					if i%readEvery != 0 {
						continue
					}
					got, err := sub.Next(ctx)
					if err != nil || got.Seq <= last {
						t.Logf("Next after publish %d: seq=%d last=%d err=%v", i, got.Seq, last, err)
						return false
					}
					last = got.Seq
				}

				if last == uint64(publishes) {
					return true
				}
				got, err := sub.Next(ctx)
				return err == nil && got.Seq == uint64(publishes)
			},
			gen.IntRange(1, 200),
			gen.IntRange(1, 17),
		))
	}

	properties.TestingRun(t)
}

// TestLatestWinsUnderLoad_PropertyBased checks that a subscriber which never
// reads while N snapshots are published holds at most one pending value: the
// first Next returns the newest snapshot.
func TestLatestWinsUnderLoad_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("broadcast keeps a single pending snapshot", prop.ForAll(
		func(publishes int) bool {
			d := NewBroadcast()
			defer d.Close()
			s, _ := d.Subscribe()
			sub := s.(*broadcastSub)

			for i := 0; i < publishes; i++ {
				if err := d.Publish(snap(i, 1, 2, 3)); err != nil {
					return false
				}
				if len(sub.ch) > 1 {
					return false
				}
			}
			got, err := sub.Next(context.Background())
			return err == nil && got.Seq == uint64(publishes) && len(sub.ch) == 0
		},
		gen.IntRange(1, 500),
	))

	properties.TestingRun(t)
}

func BenchmarkPublish(b *testing.B) {
	for _, strategy := range Strategies() {
		b.Run(string(strategy), func(b *testing.B) {
			d, _ := New(strategy, WithMinInterval(0))
			defer d.Close()
			for i := 0; i < 64; i++ {
				_, _ = d.Subscribe()
			}
			cores := make([]float64, 64)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = d.Publish(snapshot.New(base.Add(time.Duration(i)), cores))
			}
		})
	}
}
