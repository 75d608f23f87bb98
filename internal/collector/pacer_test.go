package collector_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fleetsight/telemetry-agent/internal/collector"
)

var _ = Describe("Pacer", func() {
	var now time.Time

	BeforeEach(func() {
		now = time.Date(2026, 1, 25, 8, 0, 0, 0, time.UTC)
	})

	Describe("Delay", func() {
		It("should admit the first request per vehicle immediately", func() {
			p := collector.NewPacer(30 * time.Second)
			Expect(p.Delay(1, now)).To(BeZero())
		})

		It("should hold the second request for the full cooldown", func() {
			p := collector.NewPacer(30 * time.Second)
			Expect(p.Delay(1, now)).To(BeZero())
			Expect(p.Delay(1, now)).To(BeNumerically("~", 30*time.Second, time.Millisecond))
		})

		It("should charge only the remaining cooldown after time passes", func() {
			p := collector.NewPacer(30 * time.Second)
			Expect(p.Delay(1, now)).To(BeZero())
			Expect(p.Delay(1, now.Add(12*time.Second))).To(BeNumerically("~", 18*time.Second, time.Millisecond))
		})

		It("should admit a later request with no wait once the cooldown passed", func() {
			p := collector.NewPacer(30 * time.Second)
			Expect(p.Delay(1, now)).To(BeZero())
			Expect(p.Delay(1, now.Add(31*time.Second))).To(BeZero())
		})

		It("should track vehicles independently", func() {
			p := collector.NewPacer(30 * time.Second)
			Expect(p.Delay(1, now)).To(BeZero())
			Expect(p.Delay(2, now)).To(BeZero())
			Expect(p.Delay(1, now)).To(BeNumerically(">", 0))
		})
	})

	Describe("Wait", func() {
		It("should block between consecutive requests for the same vehicle", func() {
			p := collector.NewPacer(40 * time.Millisecond)
			ctx := context.Background()

			started := time.Now()
			Expect(p.Wait(ctx, 1)).To(Succeed())
			Expect(p.Wait(ctx, 1)).To(Succeed())
			Expect(time.Since(started)).To(BeNumerically(">=", 40*time.Millisecond))
		})

		It("should not block requests for distinct vehicles", func() {
			p := collector.NewPacer(10 * time.Second)
			ctx := context.Background()

			started := time.Now()
			Expect(p.Wait(ctx, 1)).To(Succeed())
			Expect(p.Wait(ctx, 2)).To(Succeed())
			Expect(time.Since(started)).To(BeNumerically("<", time.Second))
		})

		It("should give up waiting when the context is cancelled", func() {
			p := collector.NewPacer(10 * time.Second)
			ctx, cancel := context.WithCancel(context.Background())

			Expect(p.Wait(ctx, 1)).To(Succeed())
			cancel()
			err := p.Wait(ctx, 1)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
