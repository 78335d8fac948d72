package worker

// notification_worker.go
// Processes reservation-impact jobs from QueueNotification: when one job's
// production consume shrinks or cancels another job's pending reservation,
// the office is told which job lost material and how much.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mudogruer/istakip-18.01.26/internal/infra"
)

// ReservationImpact is the job envelope sent to QueueNotification.
type ReservationImpact struct {
	ReservationID string  `json:"reservation_id"`
	AffectedJobID string  `json:"affected_job_id"`
	ActingJobID   string  `json:"acting_job_id"`
	ItemID        string  `json:"item_id"`
	ItemName      string  `json:"item_name"`
	ReducedBy     float64 `json:"reduced_by"`
	Cancelled     bool    `json:"cancelled"`
}

// NotificationWorker emails the operations address about reservation impacts.
// Delivery goes through the SMTP circuit breaker; undeliverable jobs land in
// the DLQ.
type NotificationWorker struct {
	mailer   *infra.Mailer
	cb       *infra.CircuitBreaker
	rdb      *redis.Client
	opsEmail string
}

func NewNotificationWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client, opsEmail string) *NotificationWorker {
	return &NotificationWorker{mailer: mailer, cb: cb, rdb: rdb, opsEmail: opsEmail}
}

// Process sends one reservation-impact notification.
func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReservationImpact
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		return
	}
	if w.opsEmail == "" {
		log.Warn().Msg("notification_worker: no ops email configured — skipping")
		return
	}

	subject := fmt.Sprintf("Reservation reduced on %s", payload.AffectedJobID)
	verb := "reduced"
	if payload.Cancelled {
		subject = fmt.Sprintf("Reservation cancelled on %s", payload.AffectedJobID)
		verb = "cancelled"
	}
	body := fmt.Sprintf(
		"Reservation %s for %s (%s) was %s by %.2f because %s took the stock into production.\n"+
			"Re-check material availability before scheduling %s.\n",
		payload.ReservationID, payload.ItemName, payload.ItemID, verb,
		payload.ReducedBy, payload.ActingJobID, payload.AffectedJobID)

	err := w.cb.Execute(func() error {
		return w.mailer.Send(w.opsEmail, subject, body, "")
	})
	if err != nil {
		log.Error().Err(err).Str("affected_job", payload.AffectedJobID).Msg("notification_worker: failed to send")
		SendToDLQ(ctx, w.rdb, QueueNotification, "notification", raw, err.Error(), 1)
		return
	}
	log.Info().
		Str("affected_job", payload.AffectedJobID).
		Str("acting_job", payload.ActingJobID).
		Msg("notification_worker: impact notification sent")
}
