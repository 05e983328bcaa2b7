package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/palmares/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.LeagueCompetitions, convey.ShouldResemble, config.DefaultLeagues)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PALMARES_ADDR", ":8080")
			_ = os.Setenv("PALMARES_STORE_BACKEND", "sqlite")
			_ = os.Setenv("PALMARES_SEASON_TOP_LIMIT", "20")
			_ = os.Setenv("PALMARES_LEAGUE_COMPETITIONS", "La Liga, Serie A")
			_ = os.Setenv("PALMARES_MCP_ENABLED", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendSQLite)
				convey.So(cfg.SeasonTopLimit, convey.ShouldEqual, 20)
				convey.So(cfg.LeagueCompetitions, convey.ShouldResemble, []string{"La Liga", "Serie A"})
				convey.So(cfg.MCPEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars()
			path := createTempConfigFile(`
addr: ":7070"
data_dir: "/tmp/palmares"
general_competition: "Global"
league_competitions:
  - "Premier League"
default_season: "2024/25"
`)
			defer func() { _ = os.Remove(path) }()
			_ = os.Setenv("PALMARES_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should use the file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/palmares")
				convey.So(cfg.GeneralCompetition, convey.ShouldEqual, "Global")
				convey.So(cfg.LeagueCompetitions, convey.ShouldResemble, []string{"Premier League"})
				convey.So(cfg.DefaultSeason, convey.ShouldEqual, "2024/25")
			})
		})

		convey.Convey("When env overrides a file value", func() {
			clearConfigEnvVars()
			path := createTempConfigFile("addr: \":7070\"\n")
			defer func() { _ = os.Remove(path) }()
			_ = os.Setenv("PALMARES_CONFIG", path)
			_ = os.Setenv("PALMARES_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PALMARES_CONFIG", "/nonexistent/palmares.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded values are invalid", func() {
			clearConfigEnvVars()
			_ = os.Setenv("PALMARES_STORE_BACKEND", "memory")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"PALMARES_CONFIG",
		"PALMARES_ADDR",
		"PALMARES_STORE_BACKEND",
		"PALMARES_SEASON_TOP_LIMIT",
		"PALMARES_LEAGUE_COMPETITIONS",
		"PALMARES_MCP_ENABLED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "palmares-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
