package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/vacancy/internal/adapters/sink"
	service "github.com/okian/vacancy/internal/app"
	"github.com/okian/vacancy/internal/config"
	"github.com/okian/vacancy/internal/population"
	"github.com/okian/vacancy/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const testPopulation = "../internal/population/testdata/population.yaml"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("VACANCY_ADDR", ":8080")
			_ = os.Setenv("VACANCY_PUBLISH_QUEUE_SIZE", "32")
			_ = os.Setenv("VACANCY_QUOTA_POLICY", "truncate")
			defer func() {
				_ = os.Unsetenv("VACANCY_ADDR")
				_ = os.Unsetenv("VACANCY_PUBLISH_QUEUE_SIZE")
				_ = os.Unsetenv("VACANCY_QUOTA_POLICY")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PublishQueueSize, convey.ShouldEqual, 32)
				convey.So(cfg.QuotaPolicy, convey.ShouldEqual, "truncate")
			})
		})

		convey.Convey("When the log level is invalid", func() {
			cfg := config.New(context.Background())
			cfg.LogLevel = "loud"

			convey.Convey("Then configureLogging should report it and fall back", func() {
				convey.So(configureLogging(cfg), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the population file is missing", func() {
			cfg := config.New(context.Background())
			cfg.PopulationFile = filepath.Join(t.TempDir(), "absent.yaml")

			convey.Convey("Then run should fail before serving", func() {
				err := run(context.Background(), cfg, logger.Get())
				convey.So(err, convey.ShouldWrap, population.ErrLoadPopulation)
			})
		})
	})
}

func TestAdapters(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)

		convey.Convey("When the store is memory", func() {
			ad, err := openAdapters(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer ad.Close()

			convey.Convey("Then only the log sink should be used", func() {
				convey.So(ad.store.Name(), convey.ShouldEqual, "memory")
				convey.So(ad.sinks, convey.ShouldHaveLength, 1)
				convey.So(ad.combinedSink().Name(), convey.ShouldEqual, "log")
			})
		})

		convey.Convey("When the store is sqlite", func() {
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "vacancy.db")
			ad, err := openAdapters(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer ad.Close()

			convey.Convey("Then the cache should also record revisions", func() {
				convey.So(ad.store.Name(), convey.ShouldEqual, "sqlite")
				convey.So(ad.sinks, convey.ShouldHaveLength, 2)
				_, ok := ad.combinedSink().(*sink.Multi)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the quota policy is unknown", func() {
			cfg.QuotaPolicy = "lenient"
			ad, err := openAdapters(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer ad.Close()

			convey.Convey("Then building service options should fail", func() {
				_, err := serviceOptions(cfg, logger.Get(), ad)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New(ctx)
		pop, err := population.LoadFile(ctx, testPopulation)
		convey.So(err, convey.ShouldBeNil)

		ad, err := openAdapters(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer ad.Close()

		opts, err := serviceOptions(cfg, logger.Get(), ad)
		convey.So(err, convey.ShouldBeNil)
		svc, err := service.New(pop, opts...)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, cfg, svc)

		convey.Convey("Then the API and its reference should be served", func() {
			for _, path := range []string{"/healthz", "/stats", "/candidates", "/slots", "/assignment", "/openapi.yaml", "/api-docs"} {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then the metric updaters should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the periodic updaters should return on cancel", func() {
			short, stop := context.WithTimeout(ctx, 50*time.Millisecond)
			defer stop()
			convey.So(func() {
				startSystemMetricsUpdater(short)
				startServiceMetricsUpdater(short, svc)
			}, convey.ShouldNotPanic)
		})
	})
}
