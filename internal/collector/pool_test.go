package collector_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fleetsight/telemetry-agent/internal/collector"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/tms"
)

// recordingTMS is a fake monitoring endpoint that records every request.
type recordingTMS struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(w http.ResponseWriter, r *http.Request)
	server   *httptest.Server
}

type recordedRequest struct {
	Token    string
	Command  string
	IDMO     string
	FromDate string
	ToDate   string
	At       time.Time
}

func newRecordingTMS() *recordingTMS {
	rec := &recordingTMS{}
	rec.respond = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"moUid":"u1","distance":42.5}`)
	}
	rec.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rec.mu.Lock()
		rec.requests = append(rec.requests, recordedRequest{
			Token:    q.Get("token"),
			Command:  q.Get("command"),
			IDMO:     q.Get("idMO"),
			FromDate: q.Get("fromDate"),
			ToDate:   q.Get("toDate"),
			At:       time.Now(),
		})
		rec.mu.Unlock()
		rec.respond(w, r)
	}))
	return rec
}

func (r *recordingTMS) recorded() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

func (r *recordingTMS) countByToken() map[string]int {
	counts := make(map[string]int)
	for _, req := range r.recorded() {
		counts[req.Token]++
	}
	return counts
}

var _ = Describe("Pool", func() {
	var (
		ctx context.Context
		rec *recordingTMS
	)

	BeforeEach(func() {
		ctx = context.Background()
		rec = newRecordingTMS()
		DeferCleanup(rec.server.Close)
	})

	clients := func(tokens ...string) []*tms.Client {
		base := tms.NewClient(tms.Config{
			BaseURL:       rec.server.URL,
			MaxAttempts:   2,
			RetryUnit:     time.Millisecond,
			RateLimitUnit: time.Millisecond,
		})
		out := make([]*tms.Client, 0, len(tokens))
		for _, t := range tokens {
			out = append(out, base.WithToken(t))
		}
		return out
	}

	task := func(ref string, vehicle int64) models.FetchTask {
		return models.FetchTask{
			SheetRef:    ref,
			VehicleID:   vehicle,
			WindowStart: time.Date(2026, 1, 25, 8, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2026, 1, 25, 20, 0, 0, 0, time.UTC),
		}
	}

	Describe("NewPool", func() {
		It("should refuse an empty client list", func() {
			_, err := collector.NewPool(nil, collector.Config{})
			Expect(err).To(MatchError(collector.ErrNoClients))
		})
	})

	Describe("Collect", func() {
		It("should fetch every task and key results by task identity", func() {
			pool, err := collector.NewPool(clients("tok-a"), collector.Config{Cooldown: time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			results := pool.Collect(ctx, []models.FetchTask{task("s1", 1), task("s2", 2)}, nil)
			Expect(results).To(HaveLen(2))

			s1 := results[models.TaskKey{SheetRef: "s1", VehicleID: 1}]
			Expect(s1).NotTo(BeNil())
			Expect(s1.UnitUID).To(Equal("u1"))
			Expect(s1.Distance).To(HaveValue(Equal(42.5)))

			reqs := rec.recorded()
			Expect(reqs).To(HaveLen(2))
			Expect(reqs[0].Command).To(Equal("getMonitoringStats"))
			Expect(reqs[0].FromDate).To(Equal("25.01.2026 08:00"))
			Expect(reqs[0].ToDate).To(Equal("25.01.2026 20:00"))
		})

		It("should report progress after every task", func() {
			pool, err := collector.NewPool(clients("tok-a"), collector.Config{Cooldown: time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			var mu sync.Mutex
			var seen [][2]int
			pool.Collect(ctx, []models.FetchTask{task("s1", 1), task("s2", 2), task("s3", 3)}, func(completed, total int) {
				mu.Lock()
				seen = append(seen, [2]int{completed, total})
				mu.Unlock()
			})

			Expect(seen).To(Equal([][2]int{{1, 3}, {2, 3}, {3, 3}}))
		})

		It("should space requests for the same vehicle by the cooldown", func() {
			pool, err := collector.NewPool(clients("tok-a"), collector.Config{Cooldown: 60 * time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			started := time.Now()
			pool.Collect(ctx, []models.FetchTask{task("s1", 7), task("s2", 7), task("s3", 7)}, nil)
			Expect(time.Since(started)).To(BeNumerically(">=", 115*time.Millisecond))

			reqs := rec.recorded()
			Expect(reqs).To(HaveLen(3))
			Expect(reqs[1].At.Sub(reqs[0].At)).To(BeNumerically(">=", 55*time.Millisecond))
			Expect(reqs[2].At.Sub(reqs[1].At)).To(BeNumerically(">=", 55*time.Millisecond))
		})

		It("should deal tasks round-robin across credentials", func() {
			pool, err := collector.NewPool(clients("tok-a", "tok-b"), collector.Config{Cooldown: time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			results := pool.Collect(ctx, []models.FetchTask{
				task("s1", 1), task("s2", 2), task("s3", 3), task("s4", 4),
			}, nil)
			Expect(results).To(HaveLen(4))

			counts := rec.countByToken()
			Expect(counts).To(Equal(map[string]int{"tok-a": 2, "tok-b": 2}))
		})

		It("should degrade untracked vehicles to empty summaries", func() {
			rec.respond = func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no such unit", http.StatusNotFound)
			}
			pool, err := collector.NewPool(clients("tok-a"), collector.Config{Cooldown: time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			results := pool.Collect(ctx, []models.FetchTask{task("s1", 1)}, nil)
			summary := results[models.TaskKey{SheetRef: "s1", VehicleID: 1}]
			Expect(summary).NotTo(BeNil())
			Expect(summary.UnitUID).To(BeEmpty())
			Expect(summary.Distance).To(BeNil())
		})

		It("should degrade terminal failures to empty summaries and finish the batch", func() {
			rec.respond = func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}
			pool, err := collector.NewPool(clients("tok-a"), collector.Config{Cooldown: time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			var calls int
			results := pool.Collect(ctx, []models.FetchTask{task("s1", 1), task("s2", 2)}, func(completed, total int) {
				calls++
			})
			Expect(results).To(HaveLen(2))
			Expect(calls).To(Equal(2))
			for _, s := range results {
				Expect(s.Distance).To(BeNil())
			}
		})

		It("should keep the last write for duplicate task keys", func() {
			var n int
			rec.respond = func(w http.ResponseWriter, r *http.Request) {
				n++
				fmt.Fprintf(w, `{"moUid":"u1","distance":%d}`, n*100)
			}
			pool, err := collector.NewPool(clients("tok-a"), collector.Config{Cooldown: time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			results := pool.Collect(ctx, []models.FetchTask{task("s1", 1), task("s1", 1)}, nil)
			Expect(results).To(HaveLen(1))
			summary := results[models.TaskKey{SheetRef: "s1", VehicleID: 1}]
			Expect(summary.Distance).To(HaveValue(Equal(200.0)))
		})
	})

	Describe("CollectShifts", func() {
		It("should fetch one summary per shift with clipped windows", func() {
			pool, err := collector.NewPool(clients("tok-a"), collector.Config{Cooldown: time.Millisecond})
			Expect(err).NotTo(HaveOccurred())

			from := time.Date(2026, 1, 25, 8, 0, 0, 0, time.UTC)
			to := time.Date(2026, 1, 26, 8, 0, 0, 0, time.UTC)
			got := pool.CollectShifts(ctx, 9, from, to)

			Expect(got).To(HaveLen(3))
			Expect(got[0].Shift.Key).To(Equal("25.01.2026_morning"))
			Expect(got[1].Shift.Key).To(Equal("25.01.2026_evening"))
			Expect(got[2].Shift.Key).To(Equal("26.01.2026_morning"))
			for _, st := range got {
				Expect(st.Summary).NotTo(BeNil())
				Expect(st.Summary.UnitUID).To(Equal("u1"))
			}

			reqs := rec.recorded()
			Expect(reqs).To(HaveLen(3))
			Expect(reqs[0].IDMO).To(Equal("9"))
			Expect(reqs[0].FromDate).To(Equal("25.01.2026 08:00"))
			Expect(reqs[0].ToDate).To(Equal("25.01.2026 19:30"))
			Expect(reqs[1].FromDate).To(Equal("25.01.2026 19:30"))
			Expect(reqs[1].ToDate).To(Equal("26.01.2026 07:30"))
		})
	})
})
