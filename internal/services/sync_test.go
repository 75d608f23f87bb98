package services_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fleetsight/telemetry-agent/internal/config"
	"github.com/fleetsight/telemetry-agent/internal/models"
	"github.com/fleetsight/telemetry-agent/internal/services"
	"github.com/fleetsight/telemetry-agent/internal/store"
	"github.com/fleetsight/telemetry-agent/internal/store/migrations"
	"github.com/fleetsight/telemetry-agent/pkg/scheduler"
)

var _ = Describe("Sync Service", func() {
	var (
		ctx          context.Context
		fake         *fakeTMS
		server       *httptest.Server
		sched        *scheduler.Scheduler
		db           *sql.DB
		st           *store.Store
		cfg          *config.Configuration
		collectorSrv *services.CollectorService
	)

	BeforeEach(func() {
		ctx = context.Background()

		fake = newFakeTMS()
		server = httptest.NewServer(fake.handler())

		sched = scheduler.NewScheduler(1)

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())

		err = migrations.Run(ctx, db)
		Expect(err).NotTo(HaveOccurred())

		st = store.NewStore(db)

		cfg = config.Default()
		cfg.TMS.Timeout = time.Second
		cfg.Collector.VehicleCooldown = time.Millisecond

		collectorSrv = services.NewCollectorService(sched, st, cfg)
	})

	AfterEach(func() {
		if sched != nil {
			sched.Close()
		}
		if db != nil {
			db.Close()
		}
		if server != nil {
			server.Close()
		}
	})

	It("should collect today's sheets shortly after start", func() {
		creds := &models.Credentials{BaseURL: server.URL, Tokens: []string{"tok-a"}}
		Expect(collectorSrv.SaveCredentials(ctx, creds)).To(Succeed())

		agentCfg := cfg.Agent
		agentCfg.SyncInterval = 10 * time.Second
		syncSrv := services.NewSyncService(agentCfg, collectorSrv, st)
		syncSrv.Start()
		defer syncSrv.Stop()

		// The first sync fires immediately, long before the first tick.
		Eventually(func() error {
			_, err := collectorSrv.LatestRun(ctx)
			return err
		}, 2*time.Second).ShouldNot(HaveOccurred())

		run, err := collectorSrv.LatestRun(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(run.PeriodEnd.Sub(run.PeriodStart)).To(Equal(24 * time.Hour))

		Eventually(func() models.RunState {
			latest, err := collectorSrv.LatestRun(ctx)
			if err != nil {
				return ""
			}
			return latest.State
		}, 5*time.Second).Should(Equal(models.RunStateCompleted))
	})

	It("should skip syncing when no credentials are stored", func() {
		agentCfg := cfg.Agent
		agentCfg.SyncInterval = 20 * time.Millisecond
		syncSrv := services.NewSyncService(agentCfg, collectorSrv, st)
		syncSrv.Start()
		defer syncSrv.Stop()

		Consistently(func() error {
			_, err := collectorSrv.LatestRun(ctx)
			return err
		}, 200*time.Millisecond).Should(MatchError(store.ErrNotFound))

		Expect(collectorSrv.GetStatus(ctx).State).To(Equal(models.CollectorStateReady))
	})

	It("should not start a second run while one is collecting", func() {
		creds := &models.Credentials{BaseURL: server.URL, Tokens: []string{"tok-a"}}
		Expect(collectorSrv.SaveCredentials(ctx, creds)).To(Succeed())

		fake.setListing(http.StatusOK, sheetsPayload)
		release := make(chan struct{})
		defer close(release)
		fake.setMonitor(func(idMO string) (int, string) {
			<-release
			return http.StatusOK, `{"moUid": "u"}`
		})

		runID, err := collectorSrv.Start(ctx, services.Period{
			From: time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, time.January, 26, 0, 0, 0, 0, time.UTC),
		})
		Expect(err).NotTo(HaveOccurred())

		agentCfg := cfg.Agent
		agentCfg.SyncInterval = 20 * time.Millisecond
		syncSrv := services.NewSyncService(agentCfg, collectorSrv, st)
		syncSrv.Start()
		defer syncSrv.Stop()

		Consistently(func() uuid.UUID {
			latest, err := collectorSrv.LatestRun(ctx)
			if err != nil {
				return uuid.Nil
			}
			return latest.ID
		}, 300*time.Millisecond).Should(Equal(runID))
	})
})
