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

var _ = Describe("ResultsStore", func() {
	var (
		ctx   context.Context
		s     *store.Store
		db    *sql.DB
		runID uuid.UUID
		task  models.FetchTask
	)

	summary := func(distance float64) *models.TelemetrySummary {
		return &models.TelemetrySummary{
			UnitUID:  "u1",
			Distance: &distance,
			Fuels:    []models.FuelRecord{},
			Parkings: []models.ParkingEvent{},
			Track:    []models.TrackPoint{},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		s, db = newTestStore(ctx)

		runID = uuid.New()
		task = models.FetchTask{
			SheetRef:    "0042_25.01.2026",
			VehicleID:   101,
			VehicleName: "KAMAZ Tipper",
			RegNumber:   "A123BC",
			WindowStart: time.Date(2026, 1, 25, 8, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2026, 1, 25, 20, 0, 0, 0, time.UTC),
		}
	})

	AfterEach(func() {
		if db != nil {
			_ = db.Close()
		}
	})

	Describe("Save and ListByRun", func() {
		It("should archive a summary with its task identity", func() {
			Expect(s.Results().Save(ctx, runID, task, summary(152.4))).To(Succeed())

			results, err := s.Results().ListByRun(ctx, runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].SheetRef).To(Equal("0042_25.01.2026"))
			Expect(results[0].VehicleID).To(Equal(int64(101)))
			Expect(results[0].Summary).NotTo(BeNil())
			Expect(results[0].Summary.Distance).To(HaveValue(Equal(152.4)))
			Expect(results[0].CollectedAt).NotTo(BeZero())
		})

		It("should overwrite the row when the same task is saved again", func() {
			Expect(s.Results().Save(ctx, runID, task, summary(100))).To(Succeed())

			otherRun := uuid.New()
			Expect(s.Results().Save(ctx, otherRun, task, summary(200))).To(Succeed())

			results, err := s.Results().ListByRun(ctx, otherRun)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Summary.Distance).To(HaveValue(Equal(200.0)))

			// The old run no longer owns the row.
			old, err := s.Results().ListByRun(ctx, runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(old).To(BeEmpty())
		})

		It("should order results by sheet and vehicle", func() {
			second := task
			second.SheetRef = "0001_25.01.2026"
			second.VehicleID = 7

			Expect(s.Results().Save(ctx, runID, task, summary(1))).To(Succeed())
			Expect(s.Results().Save(ctx, runID, second, summary(2))).To(Succeed())

			results, err := s.Results().ListByRun(ctx, runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].SheetRef).To(Equal("0001_25.01.2026"))
			Expect(results[1].SheetRef).To(Equal("0042_25.01.2026"))
		})
	})

	Describe("ListByPeriod", func() {
		It("should return results whose windows overlap the period", func() {
			Expect(s.Results().Save(ctx, runID, task, summary(1))).To(Succeed())

			overlapping, err := s.Results().ListByPeriod(ctx,
				time.Date(2026, 1, 25, 19, 0, 0, 0, time.UTC),
				time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC))
			Expect(err).NotTo(HaveOccurred())
			Expect(overlapping).To(HaveLen(1))

			disjoint, err := s.Results().ListByPeriod(ctx,
				time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC),
				time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC))
			Expect(err).NotTo(HaveOccurred())
			Expect(disjoint).To(BeEmpty())
		})
	})

	Describe("empty summaries", func() {
		It("should roundtrip the fail-soft empty summary", func() {
			empty := &models.TelemetrySummary{
				Fuels:    []models.FuelRecord{},
				Parkings: []models.ParkingEvent{},
				Track:    []models.TrackPoint{},
			}
			Expect(s.Results().Save(ctx, runID, task, empty)).To(Succeed())

			results, err := s.Results().ListByRun(ctx, runID)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Summary.UnitUID).To(BeEmpty())
			Expect(results[0].Summary.Distance).To(BeNil())
		})
	})
})
