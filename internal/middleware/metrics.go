package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores console counters
type Metrics struct {
	RequestsTotal   uint64
	RequestsFailed  uint64
	WizardSessions  uint64
	WizardCompleted uint64
	ScansTotal      uint64
	ScansCompleted  uint64
	ScansFailed     uint64
	StartTime       time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

func IncrementRequests()       { atomic.AddUint64(&globalMetrics.RequestsTotal, 1) }
func IncrementFailed()         { atomic.AddUint64(&globalMetrics.RequestsFailed, 1) }
func IncrementWizardSessions() { atomic.AddUint64(&globalMetrics.WizardSessions, 1) }
func IncrementWizardComplete() { atomic.AddUint64(&globalMetrics.WizardCompleted, 1) }
func IncrementScans()          { atomic.AddUint64(&globalMetrics.ScansTotal, 1) }
func IncrementScansCompleted() { atomic.AddUint64(&globalMetrics.ScansCompleted, 1) }
func IncrementScansFailed()    { atomic.AddUint64(&globalMetrics.ScansFailed, 1) }

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":    atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_failed":   atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"wizard_sessions":   atomic.LoadUint64(&globalMetrics.WizardSessions),
		"wizard_completed":  atomic.LoadUint64(&globalMetrics.WizardCompleted),
		"scans_total":       atomic.LoadUint64(&globalMetrics.ScansTotal),
		"scans_completed":   atomic.LoadUint64(&globalMetrics.ScansCompleted),
		"scans_failed":      atomic.LoadUint64(&globalMetrics.ScansFailed),
		"uptime_seconds":    time.Since(globalMetrics.StartTime).Seconds(),
		"goroutines":        runtime.NumGoroutine(),
		"memory_alloc_byte": m.Alloc,
	}
}

// MetricsMiddleware tracks request counters
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 400 {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
