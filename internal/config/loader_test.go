package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/mapperator/internal/config"
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
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MAPPERATOR_WORKER_COUNT", "3")
			_ = os.Setenv("MAPPERATOR_MAX_LOOKBACK", "4")
			_ = os.Setenv("MAPPERATOR_TOLERANCES", "1, 2,4")
			_ = os.Setenv("MAPPERATOR_SIGMA", "2.5")
			_ = os.Setenv("MAPPERATOR_METRICS_ADDR", ":9100")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.MaxLookback, convey.ShouldEqual, 4)
				convey.So(cfg.Tolerances, convey.ShouldResemble, []int{1, 2, 4})
				convey.So(cfg.Sigma, convey.ShouldEqual, 2.5)
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9100")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
corpus_path: /data/corpus.txt
worker_count: 6
top_k: 5
tolerances: [0, 2, 6, 12]
pog_bonus: 10
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MAPPERATOR_CONFIG", tmpFile)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CorpusPath, convey.ShouldEqual, "/data/corpus.txt")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 6)
				convey.So(cfg.TopK, convey.ShouldEqual, 5)
				convey.So(cfg.Tolerances, convey.ShouldResemble, []int{0, 2, 6, 12})
				convey.So(cfg.PogBonus, convey.ShouldEqual, 10)
				convey.So(cfg.MaxLength, convey.ShouldEqual, 32)
			})

			convey.Convey("Then environment variables override file values", func() {
				_ = os.Setenv("MAPPERATOR_WORKER_COUNT", "2")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.TopK, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MAPPERATOR_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("MAPPERATOR_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MAPPERATOR_WORKER_COUNT", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config that fails validation", func() {
			_ = os.Setenv("MAPPERATOR_TOP_K", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"MAPPERATOR_CONFIG",
		"MAPPERATOR_WORKER_COUNT",
		"MAPPERATOR_MAX_LOOKBACK",
		"MAPPERATOR_TOLERANCES",
		"MAPPERATOR_SIGMA",
		"MAPPERATOR_METRICS_ADDR",
		"MAPPERATOR_TOP_K",
	} {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "mapperator-config-*.yaml")
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
