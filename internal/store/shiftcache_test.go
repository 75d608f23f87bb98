package store_test

import (
	"context"
	"database/sql"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/store"
)

var _ = Describe("ShiftCacheStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
	)

	summary := func(uid string) *models.TelemetrySummary {
		return &models.TelemetrySummary{
			UnitUID:  uid,
			Fuels:    []models.FuelRecord{},
			Parkings: []models.ParkingEvent{},
			Track:    []models.TrackPoint{},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		s, db = newTestStore(ctx)
	})

	AfterEach(func() {
		if db != nil {
			_ = db.Close()
		}
	})

	It("should return ErrNotFound for a missing entry", func() {
		_, err := s.ShiftCache().Get(ctx, 101, "25.01.2026_morning")
		Expect(err).To(Equal(store.ErrNotFound))
	})

	It("should roundtrip a cached summary", func() {
		Expect(s.ShiftCache().Save(ctx, 101, "25.01.2026_morning", summary("u1"))).To(Succeed())

		got, err := s.ShiftCache().Get(ctx, 101, "25.01.2026_morning")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UnitUID).To(Equal("u1"))
	})

	It("should key entries by vehicle and shift independently", func() {
		Expect(s.ShiftCache().Save(ctx, 101, "25.01.2026_morning", summary("a"))).To(Succeed())
		Expect(s.ShiftCache().Save(ctx, 101, "25.01.2026_evening", summary("b"))).To(Succeed())
		Expect(s.ShiftCache().Save(ctx, 202, "25.01.2026_morning", summary("c"))).To(Succeed())

		got, err := s.ShiftCache().Get(ctx, 101, "25.01.2026_evening")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UnitUID).To(Equal("b"))

		got, err = s.ShiftCache().Get(ctx, 202, "25.01.2026_morning")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UnitUID).To(Equal("c"))
	})

	It("should overwrite an existing entry", func() {
		Expect(s.ShiftCache().Save(ctx, 101, "25.01.2026_morning", summary("old"))).To(Succeed())
		Expect(s.ShiftCache().Save(ctx, 101, "25.01.2026_morning", summary("new"))).To(Succeed())

		got, err := s.ShiftCache().Get(ctx, 101, "25.01.2026_morning")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.UnitUID).To(Equal("new"))
	})

	It("should purge entries fetched before the cutoff", func() {
		Expect(s.ShiftCache().Save(ctx, 101, "25.01.2026_morning", summary("u1"))).To(Succeed())

		Expect(s.ShiftCache().Purge(ctx, time.Now().Add(24*time.Hour))).To(Succeed())

		_, err := s.ShiftCache().Get(ctx, 101, "25.01.2026_morning")
		Expect(err).To(Equal(store.ErrNotFound))
	})
})
