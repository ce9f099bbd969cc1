package overdue

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Processor periodically sweeps for PENDING requests past the overdue
// threshold and logs them. The sweep is observability only: overdue status
// is derived on read, never persisted.
type Processor struct {
	db            *Database
	threshold     time.Duration
	sweepInterval time.Duration
}

func NewProcessor(gormDB *gorm.DB, threshold, sweepInterval time.Duration) *Processor {
	return &Processor{
		db:            NewDatabase(gormDB),
		threshold:     threshold,
		sweepInterval: sweepInterval,
	}
}

// Start begins the overdue sweep loop
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "overdue_processor").Logger()
	logger.Info().
		Dur("threshold", p.threshold).
		Dur("sweep_interval", p.sweepInterval).
		Msg("starting overdue processor")

	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down overdue processor")
			return
		case <-ticker.C:
			if err := p.sweep(); err != nil {
				logger.Error().Err(err).Msg("overdue sweep failed")
			}
		}
	}
}

func (p *Processor) sweep() error {
	logger := log.With().Str("component", "overdue_processor").Logger()

	cutoff := time.Now().Add(-p.threshold)
	count, err := p.db.CountOverduePending(cutoff)
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Warn().
			Int64("overdue_pending", count).
			Time("cutoff", cutoff).
			Msg("pending requests past overdue threshold")
	} else {
		logger.Debug().Msg("no overdue pending requests")
	}

	return nil
}
