package usecase

import (
	"context"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	customErr "github.com/anuragind003/cdp-offer-engine/internal/domain/errors"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"go.uber.org/zap"
)

// RetentionPurger enforces the data-age policies: offer history is kept
// six months, events, campaign metrics, terminal offers and offer-less
// customers three months. Active offers past their validity window with no
// journey are expired first, so a lapsed offer settles before the age
// clocks judge it. Every batch runs in its own transaction; a failed batch
// leaves prior batches committed and is retried by the next scheduled run.
type RetentionPurger struct {
	txManager     domainRepo.TxManager
	lifecycle     *OfferLifecycleManager
	historyMonths int
	cdpMonths     int
	batchSize     int
	logger        *zap.Logger
}

// NewRetentionPurger creates a new retention purger instance
func NewRetentionPurger(
	txManager domainRepo.TxManager,
	lifecycle *OfferLifecycleManager,
	historyMonths int,
	cdpMonths int,
	batchSize int,
	logger *zap.Logger,
) *RetentionPurger {
	return &RetentionPurger{
		txManager:     txManager,
		lifecycle:     lifecycle,
		historyMonths: historyMonths,
		cdpMonths:     cdpMonths,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// Run executes one full sweep and reports what it removed. Counts cover
// committed batches even when the sweep stops on a failed batch; deletion
// order follows the ownership chain so no step orphans rows a later step
// still needs.
func (p *RetentionPurger) Run(ctx context.Context) (entity.SweepCounts, error) {
	now := time.Now().UTC()
	historyCutoff := now.AddDate(0, -p.historyMonths, 0)
	cdpCutoff := now.AddDate(0, -p.cdpMonths, 0)

	var counts entity.SweepCounts

	p.logger.Info("Retention sweep started",
		zap.Time("history_cutoff", historyCutoff),
		zap.Time("cdp_cutoff", cdpCutoff),
		zap.Int("batch_size", p.batchSize))

	expired, err := p.expireLapsedOffers(ctx, now)
	counts.OffersExpired = expired
	if err != nil {
		return counts, err
	}

	steps := []struct {
		name    string
		counter *int64
		del     func(repos *domainRepo.Repositories) (int64, error)
	}{
		{
			name:    "offer_history",
			counter: &counts.HistoriesPurged,
			del: func(repos *domainRepo.Repositories) (int64, error) {
				return repos.Offer.DeleteHistoryOlderThan(ctx, historyCutoff, p.batchSize)
			},
		},
		{
			name:    "events",
			counter: &counts.EventsPurged,
			del: func(repos *domainRepo.Repositories) (int64, error) {
				return repos.Event.DeleteOlderThan(ctx, cdpCutoff, p.batchSize)
			},
		},
		{
			name:    "campaign_metrics",
			counter: &counts.MetricsPurged,
			del: func(repos *domainRepo.Repositories) (int64, error) {
				return repos.CampaignMetric.DeleteOlderThan(ctx, cdpCutoff, p.batchSize)
			},
		},
		{
			name:    "terminal_offers",
			counter: &counts.OffersPurged,
			del: func(repos *domainRepo.Repositories) (int64, error) {
				return repos.Offer.DeleteTerminalOlderThan(ctx, cdpCutoff, p.batchSize)
			},
		},
		{
			name:    "customers",
			counter: &counts.CustomersPurged,
			del: func(repos *domainRepo.Repositories) (int64, error) {
				return repos.Customer.DeleteAgedOut(ctx, cdpCutoff, p.batchSize)
			},
		},
	}

	for _, step := range steps {
		purged, err := p.purgeStep(ctx, step.name, step.del)
		*step.counter += purged
		if err != nil {
			return counts, err
		}
	}

	p.logger.Info("Retention sweep completed",
		zap.Int64("offers_expired", counts.OffersExpired),
		zap.Int64("histories_purged", counts.HistoriesPurged),
		zap.Int64("events_purged", counts.EventsPurged),
		zap.Int64("metrics_purged", counts.MetricsPurged),
		zap.Int64("offers_purged", counts.OffersPurged),
		zap.Int64("customers_purged", counts.CustomersPurged))

	return counts, nil
}

// expireLapsedOffers transitions active offers whose end date passed with
// no journey started, one batch per transaction.
func (p *RetentionPurger) expireLapsedOffers(ctx context.Context, now time.Time) (int64, error) {
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, customErr.NewSweepPartialFailure("expire_lapsed", err)
		}

		var batch int
		err := p.txManager.Transaction(ctx, func(repos *domainRepo.Repositories) error {
			ids, err := repos.Offer.LapsedActiveIDs(ctx, now, p.batchSize)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := p.lifecycle.Expire(ctx, repos.Offer, id, ReasonOfferLapsed); err != nil {
					return err
				}
			}
			batch = len(ids)
			return nil
		})
		if err != nil {
			p.logger.Error("Expiry batch failed",
				zap.Int64("expired_so_far", total),
				zap.Error(err))
			return total, customErr.NewSweepPartialFailure("expire_lapsed", err)
		}

		total += int64(batch)
		if batch < p.batchSize {
			return total, nil
		}
	}
}

// purgeStep repeats bounded deletes until a batch comes back short. Each
// batch commits on its own, so a mid-step failure loses only that batch.
func (p *RetentionPurger) purgeStep(ctx context.Context, name string, del func(repos *domainRepo.Repositories) (int64, error)) (int64, error) {
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, customErr.NewSweepPartialFailure(name, err)
		}

		var deleted int64
		err := p.txManager.Transaction(ctx, func(repos *domainRepo.Repositories) error {
			n, err := del(repos)
			deleted = n
			return err
		})
		if err != nil {
			p.logger.Error("Purge batch failed",
				zap.String("step", name),
				zap.Int64("purged_so_far", total),
				zap.Error(err))
			return total, customErr.NewSweepPartialFailure(name, err)
		}

		total += deleted
		if deleted < int64(p.batchSize) {
			p.logger.Info("Purge step completed",
				zap.String("step", name),
				zap.Int64("purged", total))
			return total, nil
		}
	}
}
