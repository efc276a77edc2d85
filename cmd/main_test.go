package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/mapperator/internal/adapters/codec"
	service "github.com/okian/mapperator/internal/app"
	"github.com/okian/mapperator/internal/config"
	"github.com/okian/mapperator/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(&bytes.Buffer{}); err != nil {
		panic(err)
	}
}

const line = "0 1.0000 40 0.5000 0     \n"

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		panic(err)
	}
	return path
}

func TestRun(t *testing.T) {
	convey.Convey("Given a corpus and a pattern on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.CorpusPath = writeFile(dir, "corpus.txt", strings.Repeat(line, 6)+codec.Sentinel+"\n")
		cfg.PatternPath = writeFile(dir, "pattern.txt", strings.Repeat(line, 4))

		convey.Convey("When output goes to stdout", func() {
			var stdout bytes.Buffer
			err := run(ctx, cfg, nil, &stdout)

			convey.Convey("Then the generated events are written in the interchange format", func() {
				convey.So(err, convey.ShouldBeNil)
				got := stdout.String()
				convey.So(strings.HasPrefix(got, codec.HeaderPrefix), convey.ShouldBeTrue)
				events, rerr := codec.NewReader(strings.NewReader(got)).ReadEvents()
				convey.So(rerr, convey.ShouldBeNil)
				convey.So(len(events), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When output goes to a file and the pattern comes from stdin", func() {
			cfg.PatternPath = "-"
			cfg.OutputPath = filepath.Join(dir, "out.txt")
			err := run(ctx, cfg, strings.NewReader(strings.Repeat(line, 3)), nil)

			convey.Convey("Then the file holds the result", func() {
				convey.So(err, convey.ShouldBeNil)
				f, oerr := os.Open(cfg.OutputPath)
				convey.So(oerr, convey.ShouldBeNil)
				defer func() { _ = f.Close() }()
				events, rerr := codec.NewReader(f).ReadEvents()
				convey.So(rerr, convey.ShouldBeNil)
				convey.So(len(events), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When no pattern is configured", func() {
			cfg.PatternPath = ""
			err := run(ctx, cfg, nil, &bytes.Buffer{})

			convey.Convey("Then it fails", func() {
				convey.So(errors.Is(err, errNoPattern), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the corpus is missing", func() {
			cfg.CorpusPath = filepath.Join(dir, "missing.txt")
			err := run(ctx, cfg, nil, &bytes.Buffer{})

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the pattern is malformed", func() {
			cfg.PatternPath = writeFile(dir, "bad.txt", "not an event\n")
			var stdout bytes.Buffer
			err := run(ctx, cfg, nil, &stdout)

			convey.Convey("Then nothing is written", func() {
				convey.So(errors.Is(err, codec.ErrMalformedLine), convey.ShouldBeTrue)
				convey.So(stdout.Len(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the API mux over a started service", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 1
		svc := service.New(service.WithConfig(cfg))
		convey.So(svc.LoadCorpus(ctx, strings.NewReader(strings.Repeat(line, 5))), convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		srv := httptest.NewServer(newMux(svc))
		defer srv.Close()

		convey.Convey("Then a pattern posted to /generate is answered", func() {
			resp, err := http.Post(srv.URL+"/generate", "text/plain", strings.NewReader(strings.Repeat(line, 2)))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(resp.Header.Get("X-Run-Id"), convey.ShouldNotBeEmpty)
			events, rerr := codec.NewReader(resp.Body).ReadEvents()
			convey.So(rerr, convey.ShouldBeNil)
			convey.So(len(events), convey.ShouldEqual, 2)
		})

		convey.Convey("Then metrics are exposed", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})
}
