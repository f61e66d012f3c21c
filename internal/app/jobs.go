/**
 * @description
 * Housekeeping jobs run by the cron scheduler: purging lapsed activation
 * accounts and flagging deposit receipts that have sat pending for too
 * long. Each run is bounded by its own timeout so a stuck query cannot
 * pile up job invocations.
 *
 * @dependencies
 * - github.com/robfig/cron/v3: schedule wiring (see scheduler.go).
 */
package app

import (
	"context"
	"log"
	"time"

	"github.com/nexapay/ambassador-service/internal/store"
)

const jobTimeout = 2 * time.Minute

// Jobs bundles the cron job bodies with their dependencies.
type Jobs struct {
	repo            store.Repository
	staleReceiptAge time.Duration
}

func NewJobs(repo store.Repository, staleReceiptAge time.Duration) *Jobs {
	if staleReceiptAge <= 0 {
		staleReceiptAge = 72 * time.Hour
	}
	return &Jobs{repo: repo, staleReceiptAge: staleReceiptAge}
}

// PurgeExpiredActivations deletes self-registered accounts whose
// activation link was never used before expiry.
func (j *Jobs) PurgeExpiredActivations() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	purged, err := j.repo.PurgeExpiredActivations(ctx)
	if err != nil {
		log.Printf("level=warn component=jobs job=purge_activations msg=\"run failed\" err=%v", err)
		return
	}
	if purged > 0 {
		log.Printf("level=info component=jobs job=purge_activations msg=\"purged unactivated accounts\" count=%d", purged)
	}
}

// FlagStaleReceipts marks pending receipts older than the configured age
// and publishes a receipt.stale event for each so admins get nudged.
func (j *Jobs) FlagStaleReceipts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	flagged, err := j.repo.FlagStalePendingReceipts(ctx, j.staleReceiptAge)
	if err != nil {
		log.Printf("level=warn component=jobs job=flag_stale_receipts msg=\"run failed\" err=%v", err)
		return
	}
	if len(flagged) > 0 {
		log.Printf("level=info component=jobs job=flag_stale_receipts msg=\"flagged stale pending receipts\" count=%d", len(flagged))
	}
}
