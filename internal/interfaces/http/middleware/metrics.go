package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestRecorder receives per-request measurements.  The prometheus
// AppMetrics satisfies it.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, statusCode int, d time.Duration)
	InFlight(method string) (done func())
}

// Metrics records request counts and latency labelled by the chi route
// pattern, so ids in paths do not inflate cardinality.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := recorder.InFlight(r.Method)
			defer done()

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.RecordHTTPRequest(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}

//Personal.AI order the ending
