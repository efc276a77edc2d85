package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped for metrics", t, func() {
		var seen *statusRecorder
		handler := func(status int, body string) http.HandlerFunc {
			return func(w http.ResponseWriter, _ *http.Request) {
				seen, _ = w.(*statusRecorder)
				if status != 0 {
					w.WriteHeader(status)
				}
				if body != "" {
					_, _ = w.Write([]byte(body))
				}
			}
		}

		Convey("When the handler only writes a body", func() {
			w := httptest.NewRecorder()
			MetricsMiddleware(handler(0, "events"), "generate")(w, httptest.NewRequest(http.MethodPost, "/generate", nil))

			Convey("Then the implied status is recorded", func() {
				So(seen, ShouldNotBeNil)
				So(seen.Status(), ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "events")
			})
		})

		Convey("When the handler writes nothing", func() {
			MetricsMiddleware(handler(0, ""), "healthz")(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
			So(seen.Status(), ShouldEqual, http.StatusOK)
		})

		Convey("When the handler fails", func() {
			w := httptest.NewRecorder()
			MetricsMiddleware(handler(http.StatusServiceUnavailable, "{}"), "corpus")(w, httptest.NewRequest(http.MethodPost, "/corpus", nil))

			Convey("Then the first status wins and reaches the client", func() {
				seen.WriteHeader(http.StatusOK)
				So(seen.Status(), ShouldEqual, http.StatusServiceUnavailable)
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(seen.Unwrap(), ShouldEqual, w)
			})
		})
	})

	Convey("Given response statuses", t, func() {
		So(failureKind(http.StatusOK), ShouldEqual, "")
		So(failureKind(http.StatusCreated), ShouldEqual, "")
		So(failureKind(http.StatusBadRequest), ShouldEqual, "bad_request")
		So(failureKind(http.StatusNotFound), ShouldEqual, "not_found")
		So(failureKind(http.StatusRequestEntityTooLarge), ShouldEqual, "too_large")
		So(failureKind(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		So(failureKind(http.StatusInternalServerError), ShouldEqual, "internal")
	})
}
