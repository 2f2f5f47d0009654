package bidding

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/metrics"
)

// ExpirySweeper периодически помечает просроченные ожидающие ставки как expired.
// Проверки сроков в операциях от него не зависят.
type ExpirySweeper struct {
	deps     Deps
	interval time.Duration
}

func NewExpirySweeper(deps Deps, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{deps: deps.withDefaults(), interval: interval}
}

func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	var expired int
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		expired, err = tx.Bids().ExpireStale(ctx, s.deps.Clock())
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.Settlement().ObserveBidsExpired(expired)
	return expired, nil
}

// Run блокируется до отмены ctx.
func (s *ExpirySweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				logger.Log.WithError(err).Warn("не удалось пометить просроченные ставки")
				continue
			}
			if n > 0 {
				logger.Log.WithFields(logrus.Fields{"expired_bids": n}).Info("просроченные ставки закрыты")
			}
		}
	}
}
