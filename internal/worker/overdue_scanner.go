package worker

// overdue_scanner.go
// Background goroutine that periodically scans production/procurement orders
// whose estimated delivery date has passed without completion. Every pass
// drops the cached alerts payload so reads rebuild it with fresh overdue
// state; orders are announced to the operations address at most once per day
// via the email queue.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mudogruer/istakip-18.01.26/internal/infra"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
)

const overdueTickInterval = 6 * time.Hour

// AlertsCacheKey holds the cached production alerts payload. The scanner
// invalidates it after every pass; reads repopulate it.
const AlertsCacheKey = "production:alerts"

// OverdueScannerConfig holds all dependencies for the scanner goroutine.
type OverdueScannerConfig struct {
	OrderRepo  repository.ProductionOrderRepository
	Dispatcher *Dispatcher
	RDB        *redis.Client
	CB         *infra.CircuitBreaker
	OpsEmail   string
}

// StartOverdueScanner launches a background goroutine that ticks every few
// hours, recomputes overdue state for every open order, refreshes the alert
// cache and enqueues a digest of the not-yet-announced overdue orders.
// It respects the context for graceful shutdown.
func StartOverdueScanner(ctx context.Context, cfg OverdueScannerConfig) {
	go func() {
		ticker := time.NewTicker(overdueTickInterval)
		defer ticker.Stop()

		log.Info().Msg("overdue_scanner: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("overdue_scanner: shutting down")
				return
			case <-ticker.C:
				scanOverdue(ctx, cfg)
			}
		}
	}()
}

func scanOverdue(ctx context.Context, cfg OverdueScannerConfig) {
	orders, err := cfg.OrderRepo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("overdue_scanner: failed to list orders")
		return
	}

	now := time.Now().UTC()
	overdue := collectOverdue(orders, now)

	// The cached alerts payload predates this pass; drop it so the next
	// read reflects the current overdue state.
	if cfg.RDB != nil {
		if err := cfg.RDB.Del(ctx, AlertsCacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("overdue_scanner: failed to refresh alert cache")
		}
	}

	if len(overdue) == 0 {
		return
	}
	log.Info().Int("count", len(overdue)).Msg("overdue_scanner: overdue orders found")

	if cfg.OpsEmail == "" {
		return
	}
	// Don't pile digests onto a downed relay.
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("overdue_scanner: circuit breaker is open, skipping notifications")
		return
	}

	// Each order enters the digest at most once per day.
	var lines []string
	for _, o := range overdue {
		if !markNotified(ctx, cfg.RDB, o.ID, now) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  %s  (supplier: %s, estimated: %s, status: %s)",
			o.ID, o.JobTitle, o.SupplierName, o.EstimatedDelivery, model.CalculateOrderStatus(o)))
	}
	if len(lines) == 0 {
		return
	}

	err = cfg.Dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: cfg.OpsEmail,
		Subject: fmt.Sprintf("%d overdue orders", len(lines)),
		Body: "The following orders have passed their estimated delivery date:\n\n" +
			strings.Join(lines, "\n") + "\n",
	})
	if err != nil {
		log.Error().Err(err).Msg("overdue_scanner: failed to enqueue digest")
	}
}

// collectOverdue returns the orders whose estimated delivery date has passed
// without completion, preserving input order.
func collectOverdue(orders []model.ProductionOrder, now time.Time) []*model.ProductionOrder {
	var out []*model.ProductionOrder
	for i := range orders {
		if model.IsOverdue(&orders[i], now) {
			out = append(out, &orders[i])
		}
	}
	return out
}

// markNotified records that the order entered today's digest and reports
// whether this pass claimed it first. Without a redis client (dev, tests)
// every pass announces; on redis errors the scanner fails open rather than
// silencing alerts.
func markNotified(ctx context.Context, rdb *redis.Client, orderID string, day time.Time) bool {
	if rdb == nil {
		return true
	}
	key := overdueNotifyKey(orderID, day)
	ok, err := rdb.SetNX(ctx, key, "1", 48*time.Hour).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("overdue_scanner: dedupe check failed")
		return true
	}
	return ok
}

func overdueNotifyKey(orderID string, day time.Time) string {
	return "overdue:notified:" + orderID + ":" + day.Format("2006-01-02")
}
