package usecase

import (
	"context"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CampaignExportSelector produces the campaign-extract row set: every
// non-DND customer with their single current active offer, chosen by the
// same precedence rule the classifier applies. The selector only reads;
// rows stream to the caller page by page so a full extract never holds
// the working set in memory.
type CampaignExportSelector struct {
	repos         *domainRepo.Repositories
	classifier    *OfferClassifier
	pageSize      int
	historyMonths int
	logger        *zap.Logger
}

// NewCampaignExportSelector creates a new export selector instance
func NewCampaignExportSelector(
	repos *domainRepo.Repositories,
	classifier *OfferClassifier,
	pageSize int,
	historyMonths int,
	logger *zap.Logger,
) *CampaignExportSelector {
	return &CampaignExportSelector{
		repos:         repos,
		classifier:    classifier,
		pageSize:      pageSize,
		historyMonths: historyMonths,
		logger:        logger,
	}
}

// Stream walks all exportable customers in id order and hands each row to
// fn. Returning an error from fn stops the extract; cancellation is
// honored between pages.
func (s *CampaignExportSelector) Stream(ctx context.Context, extractRef string, fn func(row entity.ExportRow) error) (int64, error) {
	since := time.Now().UTC().AddDate(0, -s.historyMonths, 0)
	afterID := uuid.Nil
	var rows int64

	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		customers, err := s.repos.Customer.PageForExport(ctx, afterID, s.pageSize)
		if err != nil {
			return rows, err
		}
		if len(customers) == 0 {
			return rows, nil
		}

		// Pick each customer's winning offer, then count recent status
		// changes for the whole page in one query.
		chosen := make([]*model.Offer, len(customers))
		var offerIDs []uuid.UUID
		for i := range customers {
			if best := s.classifier.Best(customers[i].Offers); best != nil {
				chosen[i] = best
				offerIDs = append(offerIDs, best.ID)
			}
		}

		counts, err := s.repos.Offer.HistoryCountsSince(ctx, offerIDs, since)
		if err != nil {
			return rows, err
		}

		for i := range customers {
			row := s.buildRow(&customers[i], chosen[i], counts, extractRef)
			if err := fn(row); err != nil {
				return rows, err
			}
			rows++
		}

		afterID = customers[len(customers)-1].ID
		if len(customers) < s.pageSize {
			return rows, nil
		}
	}
}

// buildRow assembles one export row from a customer and its winning offer
func (s *CampaignExportSelector) buildRow(customer *model.Customer, best *model.Offer, counts map[uuid.UUID]int64, extractRef string) entity.ExportRow {
	row := entity.ExportRow{
		CustomerID: customer.ID,
		Segments:   []string(customer.Segments),
		ExtractRef: extractRef,
	}
	if customer.MobileNumber != nil {
		row.MobileNumber = *customer.MobileNumber
	}

	if best != nil {
		start := best.OfferStartDate
		end := best.OfferEndDate
		row.OfferID = &best.ID
		row.ProductType = string(best.ProductType)
		row.Channel = best.Channel
		row.Propensity = best.Propensity
		row.OfferAmount = best.OfferAmount
		row.OfferStartDate = &start
		row.OfferEndDate = &end
		row.RecentStatusChanges = counts[best.ID]
	}

	return row
}
