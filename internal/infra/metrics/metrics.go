// internal/infra/metrics/metrics.go
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// ScansProcessed counts scans by outcome: checked_in, checked_out,
	// rejected, unknown_member, error.
	ScansProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_scans_processed_total",
		Help: "Kiosk scans processed, by outcome.",
	}, []string{"outcome"})

	FlaggedCheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_flagged_checkins_total",
		Help: "Check-ins flagged for review due to suspicious timing.",
	})

	AutoLogoutPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_auto_logout_passes_total",
		Help: "Force-logout passes run by the scheduler, by result.",
	}, []string{"result"})

	AutoLogoutRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_auto_logout_records_total",
		Help: "Forced check-out records written by the scheduler.",
	})

	SchedulerRearms = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_scheduler_rearms_total",
		Help: "Full discard-and-rearm transitions of the trigger set.",
	})
)

// Serve exposes /metrics on its own listener until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *logrus.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", addr).Info("Metrics listener starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
