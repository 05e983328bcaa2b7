package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/palmares/internal/config"
	"github.com/okian/palmares/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.DataDir = t.TempDir()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "palmares.db")
	return cfg
}

func TestConfigFromEnv(t *testing.T) {
	convey.Convey("Given PALMARES_ environment variables", t, func() {
		t.Setenv("PALMARES_ADDR", ":8080")
		t.Setenv("PALMARES_CAPTURE_QUEUE_SIZE", "250")
		t.Setenv("PALMARES_STORE_BACKEND", "sqlite")

		convey.Convey("Then configuration picks them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.CaptureQueueSize, convey.ShouldEqual, 250)
			convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendSQLite)
		})

		convey.Convey("Then an empty address is rejected", func() {
			t.Setenv("PALMARES_ADDR", "")
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)

		convey.Convey("Both backends open", func() {
			for _, backend := range []string{config.BackendFile, config.BackendSQLite} {
				cfg.StoreBackend = backend
				store, err := openStore(ctx, cfg, logger.Nop())
				convey.So(err, convey.ShouldBeNil)
				comps, err := store.Competitions(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(comps, convey.ShouldBeEmpty)
				convey.So(store.Close(), convey.ShouldBeNil)
			}
		})

		convey.Convey("An unknown backend fails", func() {
			cfg.StoreBackend = "redis"
			_, err := openStore(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestBuildMux(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		store, err := openStore(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		svc := newService(cfg, store, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() {
			svc.Stop()
			_ = store.Close()
		}()

		get := func(mux *http.ServeMux, path string) int {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return rec.Code
		}

		convey.Convey("API and docs routes are mounted", func() {
			mux := buildMux(ctx, cfg, svc, logger.Nop())
			convey.So(get(mux, "/healthz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get(mux, "/competitions"), convey.ShouldEqual, http.StatusOK)
			convey.So(get(mux, "/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
			convey.So(get(mux, "/competitions/La%20Liga/current"), convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("A posted capture is stored", func() {
			mux := buildMux(ctx, cfg, svc, logger.Nop())
			body := `{"id":"c1","type":"league_table","league":"La Liga","season":"2024/2025",
				"standings":[{"rank":1,"team":"Real Madrid","points":3}]}`
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/captures", strings.NewReader(body)))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusAccepted)

			deadline := time.Now().Add(2 * time.Second)
			for get(mux, "/competitions/La%20Liga/current") != http.StatusOK && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			convey.So(get(mux, "/competitions/La%20Liga/current"), convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("The MCP endpoint follows configuration", func() {
			routed := func(mux *http.ServeMux) bool {
				_, pattern := mux.Handler(httptest.NewRequest(http.MethodPost, cfg.MCPPath, http.NoBody))
				return pattern != ""
			}
			cfg.MCPEnabled = false
			convey.So(routed(buildMux(ctx, cfg, svc, logger.Nop())), convey.ShouldBeFalse)
			cfg.MCPEnabled = true
			convey.So(routed(buildMux(ctx, cfg, svc, logger.Nop())), convey.ShouldBeTrue)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
