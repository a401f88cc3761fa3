package main

import (
	"context"
	"time"

	"bookshelfBack/internal/services"
)

const (
	attemptSweeperInterval = 10 * time.Minute
	attemptSweeperTimeout  = 1 * time.Minute
)

// startAttemptSweeper periodically reconciles payment attempts whose gateway
// notification never arrived. One pass runs at startup so a restart does not
// delay recovery by a full interval.
func startAttemptSweeper(ctx context.Context, payments *services.PaymentService) {
	if payments == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(attemptSweeperInterval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, attemptSweeperTimeout)
			err := payments.SweepOnce(runCtx, time.Now())
			cancel()
			if err != nil {
				payments.ErrorLog.Printf("attempt sweeper: %v", err)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
