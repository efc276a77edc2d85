package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/mapperator/internal/adapters/codec"
	service "github.com/okian/mapperator/internal/app"
	"github.com/okian/mapperator/internal/domain/model"
	"github.com/okian/mapperator/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const strikeLine = "0 1.0000 40 0.5000 0     \n"

func corpusText(n int) string {
	return strings.Repeat(strikeLine, n) + codec.Sentinel + "\n"
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it is not started and holds no corpus", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["sequences"], ShouldEqual, 0)
		})

		Convey("Then generating fails until it is started", func() {
			_, err := svc.Generate(context.Background(), []model.Event{{}})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := service.New(service.WithWorkerCount(2))

		Convey("When starting and stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			started := svc.GetStats()["started"]
			svc.Stop(ctx)
			svc.Stop(ctx)

			Convey("Then the state follows", func() {
				So(started, ShouldEqual, true)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_LoadCorpus(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("When loading two corpora", func() {
			So(svc.LoadCorpus(ctx, strings.NewReader(corpusText(3))), ShouldBeNil)
			So(svc.LoadCorpus(ctx, strings.NewReader(corpusText(5)+corpusText(2))), ShouldBeNil)

			Convey("Then the sequences accumulate", func() {
				stats := svc.GetStats()
				So(stats["sequences"], ShouldEqual, 3)
				So(stats["tokens"], ShouldEqual, 10)
			})
		})

		Convey("When loading from a file", func() {
			path := filepath.Join(t.TempDir(), "corpus.txt")
			So(os.WriteFile(path, []byte(corpusText(4)), 0o600), ShouldBeNil)

			So(svc.LoadCorpusFile(ctx, path), ShouldBeNil)
			So(svc.GetStats()["tokens"], ShouldEqual, 4)
		})

		Convey("When the corpus is empty", func() {
			err := svc.LoadCorpus(ctx, strings.NewReader("\n\n"))
			So(errors.Is(err, service.ErrEmptyCorpus), ShouldBeTrue)
		})

		Convey("When the corpus is malformed", func() {
			err := svc.LoadCorpus(ctx, strings.NewReader("0 1 2\n"))
			So(errors.Is(err, codec.ErrMalformedLine), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			So(svc.LoadCorpusFile(ctx, "/non/existent/corpus.txt"), ShouldNotBeNil)
		})
	})
}

func TestService_Generate(t *testing.T) {
	for _, workers := range []int{1, 3} {
		Convey("Given a started service with a corpus containing the pattern", t, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			svc := service.New(service.WithWorkerCount(workers))
			So(svc.LoadCorpus(ctx, strings.NewReader(corpusText(8))), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop(ctx)

			Convey("When generating from the pattern", func() {
				out, err := svc.GenerateFrom(ctx, strings.NewReader(strings.Repeat(strikeLine, 8)))

				Convey("Then the pattern is reproduced under a fresh run id", func() {
					So(err, ShouldBeNil)
					_, perr := uuid.Parse(out.RunID)
					So(perr, ShouldBeNil)
					So(len(out.Events), ShouldEqual, 8)
					So(out.Failures, ShouldEqual, 0)
					So(out.PogHits, ShouldEqual, 7)
					So(svc.GetStats()["runs"], ShouldEqual, int64(1))
				})
			})

			Convey("When two runs are made", func() {
				pattern := []model.Event{{Kind: model.KindStrike, BeatGap: 1, Spacing: 40}}
				a, errA := svc.Generate(ctx, pattern)
				b, errB := svc.Generate(ctx, pattern)

				Convey("Then each gets its own run id", func() {
					So(errA, ShouldBeNil)
					So(errB, ShouldBeNil)
					So(a.RunID, ShouldNotEqual, b.RunID)
				})
			})

			Convey("When the pattern is empty", func() {
				_, err := svc.Generate(ctx, nil)
				So(errors.Is(err, service.ErrEmptyPattern), ShouldBeTrue)
			})

			Convey("When the context is already cancelled", func() {
				cctx, ccancel := context.WithCancel(ctx)
				ccancel()
				out, err := svc.Generate(cctx, []model.Event{{Kind: model.KindStrike, BeatGap: 1}})

				Convey("Then the run stops before the first position", func() {
					So(errors.Is(err, context.Canceled), ShouldBeTrue)
					So(len(out.Events), ShouldEqual, 0)
					So(out.RunID, ShouldNotBeEmpty)
				})
			})
		})
	}
}
