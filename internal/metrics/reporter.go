package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reporter logs a metrics summary on a fixed interval.
type Reporter struct {
	metrics  *Metrics
	logger   *zap.Logger
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewReporter(m *Metrics, logger *zap.Logger, interval time.Duration) *Reporter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reporter{
		metrics:  m,
		logger:   logger,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (r *Reporter) Start() {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.flush()
			}
		}
	}()
}

// Stop flushes one final summary and waits for the loop to exit.
func (r *Reporter) Stop() {
	r.cancel()
	<-r.done
	r.flush()
}

func (r *Reporter) flush() {
	snap := r.metrics.Snapshot()
	r.logger.Info("metrics summary",
		zap.Int64("auth_success", snap.AuthSuccess),
		zap.Int64("auth_failure", snap.AuthFailure),
		zap.Int64("permission_denied", snap.PermissionDenied),
		zap.Int64("http_requests", snap.HTTPRequests),
	)
}
