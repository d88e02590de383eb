package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/quals/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Trials, convey.ShouldEqual, 100)
				convey.So(cfg.APIURL, convey.ShouldEqual, "https://api.ftcscout.org/graphql")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("QUALS_ADDR", ":9090")
			_ = os.Setenv("QUALS_TRIALS", "250")
			_ = os.Setenv("QUALS_MATCHES_PER_TEAM", "8")
			_ = os.Setenv("QUALS_TREND_ALPHA", "0.25")
			_ = os.Setenv("QUALS_SEED", "42")
			_ = os.Setenv("QUALS_AUTH_USERNAME", "admin")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Trials, convey.ShouldEqual, 250)
				convey.So(cfg.MatchesPerTeam, convey.ShouldEqual, 8)
				convey.So(cfg.TrendAlpha, convey.ShouldEqual, 0.25)
				convey.So(cfg.Seed, convey.ShouldEqual, int64(42))
				convey.So(cfg.AuthUsername, convey.ShouldEqual, "admin")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
# forecaster settings
addr: ":7070"
season: 2024
trials: 500
trial_workers: 3
cache_dir: /tmp/quals-cache
allowed_origins: "https://a.example,https://b.example"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUALS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.Season, convey.ShouldEqual, 2024)
				convey.So(cfg.Trials, convey.ShouldEqual, 500)
				convey.So(cfg.TrialWorkers, convey.ShouldEqual, 3)
				convey.So(cfg.CacheDir, convey.ShouldEqual, "/tmp/quals-cache")
				convey.So(cfg.Origins(), convey.ShouldHaveLength, 2)
				convey.So(cfg.MatchesPerTeam, convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("trials: 500\nmax_retries: 20\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUALS_CONFIG", tmpFile)
			_ = os.Setenv("QUALS_TRIALS", "50")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Trials, convey.ShouldEqual, 50)
				convey.So(cfg.MaxRetries, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("trials: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUALS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("QUALS_CONFIG", "/nonexistent/quals.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("QUALS_TRIALS", "many")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When loading config with zero trials", func() {
			_ = os.Setenv("QUALS_TRIALS", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with empty addr in YAML", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUALS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error for empty addr", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"QUALS_CONFIG",
		"QUALS_ADDR",
		"QUALS_TRIALS",
		"QUALS_MATCHES_PER_TEAM",
		"QUALS_TREND_ALPHA",
		"QUALS_SEED",
		"QUALS_AUTH_USERNAME",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "quals-config-*.yaml")
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
