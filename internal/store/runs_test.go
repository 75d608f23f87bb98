package store_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/store"
)

var _ = Describe("RunsStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
		run *models.CollectionRun
	)

	BeforeEach(func() {
		ctx = context.Background()
		s, db = newTestStore(ctx)

		run = &models.CollectionRun{
			ID:          uuid.New(),
			PeriodStart: time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC),
			State:       models.RunStateRunning,
		}
	})

	AfterEach(func() {
		if db != nil {
			_ = db.Close()
		}
	})

	Describe("Create and Get", func() {
		It("should persist a new run in the running state", func() {
			err := s.Runs().Create(ctx, run)
			Expect(err).NotTo(HaveOccurred())

			got, err := s.Runs().Get(ctx, run.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(run.ID))
			Expect(got.State).To(Equal(models.RunStateRunning))
			Expect(got.TotalTasks).To(BeZero())
			Expect(got.StartedAt).NotTo(BeZero())
			Expect(got.FinishedAt).To(BeNil())
		})

		It("should return ErrNotFound for an unknown id", func() {
			_, err := s.Runs().Get(ctx, uuid.New())
			Expect(err).To(Equal(store.ErrNotFound))
		})
	})

	Describe("UpdateProgress", func() {
		It("should store the task counters", func() {
			Expect(s.Runs().Create(ctx, run)).To(Succeed())

			Expect(s.Runs().UpdateProgress(ctx, run.ID, 3, 10)).To(Succeed())

			got, err := s.Runs().Get(ctx, run.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Completed).To(Equal(3))
			Expect(got.TotalTasks).To(Equal(10))
		})
	})

	Describe("Finish", func() {
		It("should move a run into a terminal state with its error", func() {
			Expect(s.Runs().Create(ctx, run)).To(Succeed())

			Expect(s.Runs().Finish(ctx, run.ID, models.RunStateFailed, "fetching route sheets: boom")).To(Succeed())

			got, err := s.Runs().Get(ctx, run.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.State).To(Equal(models.RunStateFailed))
			Expect(got.Error).To(Equal("fetching route sheets: boom"))
			Expect(got.FinishedAt).NotTo(BeNil())
		})

		It("should leave the error empty on success", func() {
			Expect(s.Runs().Create(ctx, run)).To(Succeed())
			Expect(s.Runs().Finish(ctx, run.ID, models.RunStateCompleted, "")).To(Succeed())

			got, err := s.Runs().Get(ctx, run.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.State).To(Equal(models.RunStateCompleted))
			Expect(got.Error).To(BeEmpty())
		})
	})

	Describe("Latest", func() {
		It("should return ErrNotFound with no runs", func() {
			_, err := s.Runs().Latest(ctx)
			Expect(err).To(Equal(store.ErrNotFound))
		})

		It("should return the most recently started run", func() {
			Expect(s.Runs().Create(ctx, run)).To(Succeed())

			later := &models.CollectionRun{
				ID:          uuid.New(),
				PeriodStart: run.PeriodStart,
				PeriodEnd:   run.PeriodEnd,
				State:       models.RunStateRunning,
			}
			// Distinct started_at values so the ordering is deterministic.
			time.Sleep(10 * time.Millisecond)
			Expect(s.Runs().Create(ctx, later)).To(Succeed())

			got, err := s.Runs().Latest(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(later.ID))
		})
	})
})
