package usecase

import (
	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"go.uber.org/zap"
)

// OfferClassifier decides how a candidate offer relates to the customer's
// current active offers: its offer type, whether it may be created, and
// which existing offers lose their slot to it. Precedence between products
// follows a configurable ranking; the classifier resolves conflicts itself
// and never surfaces them as errors.
type OfferClassifier struct {
	rankByProduct map[model.ProductType]int
	logger        *zap.Logger
}

// NewOfferClassifier creates a classifier from a product priority list,
// ordered from highest precedence to lowest.
func NewOfferClassifier(productPriority []string, logger *zap.Logger) *OfferClassifier {
	ranks := make(map[model.ProductType]int, len(productPriority))
	for i, product := range productPriority {
		ranks[model.ProductType(product)] = i
	}
	return &OfferClassifier{
		rankByProduct: ranks,
		logger:        logger,
	}
}

// Decision is the classifier's verdict for one candidate offer.
type Decision struct {
	OfferType model.OfferType
	Action    entity.OfferAction

	// Supersede lists existing active offers that lose to the candidate
	// and must be marked inactive in the same transaction.
	Supersede []model.Offer

	// SupersedeReason labels the history rows of superseded offers.
	SupersedeReason string

	// CandidateLoses marks a candidate that is created but immediately
	// loses precedence to a stronger active offer on the same channel.
	CandidateLoses bool

	// Duplicate is the active offer a rejected candidate matched.
	Duplicate *model.Offer
}

// Classify applies the classification rules. active is the customer's
// current active offer set; slotSeen reports whether the product/channel
// slot ever held an offer before, in any status.
func (c *OfferClassifier) Classify(active []model.Offer, slotSeen bool, candidate *entity.CandidateOffer) Decision {
	product := model.ProductType(candidate.ProductType)

	// An active offer in the exact product/channel slot takes priority
	// over any cross-product comparison.
	var slotOffer *model.Offer
	for i := range active {
		if active[i].SameSlot(product, candidate.Channel) {
			slotOffer = &active[i]
			break
		}
	}

	if slotOffer != nil {
		if c.sameWindow(slotOffer, candidate) {
			if c.sameTerms(slotOffer, candidate) {
				c.logger.Debug("Candidate duplicates active offer",
					zap.String("offer_id", slotOffer.ID.String()))
				return Decision{
					OfferType: slotOffer.OfferType,
					Action:    entity.ActionRejectDuplicate,
					Duplicate: slotOffer,
				}
			}
			// Same validity window carrying new propensity/amount data
			return Decision{
				OfferType:       model.OfferTypeEnrich,
				Action:          entity.ActionSupersedeExisting,
				Supersede:       []model.Offer{*slotOffer},
				SupersedeReason: ReasonEnriched,
			}
		}
		// A new validity window re-issues the slot
		return Decision{
			OfferType:       model.OfferTypeNewOld,
			Action:          entity.ActionSupersedeExisting,
			Supersede:       []model.Offer{*slotOffer},
			SupersedeReason: ReasonReissued,
		}
	}

	// Cross-product: active offers on the same channel compete by
	// precedence rank.
	var rivals []model.Offer
	for i := range active {
		if active[i].Channel == candidate.Channel {
			rivals = append(rivals, active[i])
		}
	}

	if len(rivals) == 0 {
		if slotSeen {
			// Only terminal predecessors occupy the slot: a re-issue
			return Decision{
				OfferType: model.OfferTypeNewOld,
				Action:    entity.ActionCreateNew,
			}
		}
		return Decision{
			OfferType: model.OfferTypeFresh,
			Action:    entity.ActionCreateNew,
		}
	}

	candidateRank := c.rank(product)
	var losing []model.Offer
	candidateLoses := false

	for i := range rivals {
		rivalRank := c.rank(rivals[i].ProductType)
		switch {
		case candidateRank < rivalRank:
			losing = append(losing, rivals[i])
		case candidateRank > rivalRank:
			candidateLoses = true
		default:
			// Equal rank, ties broken by most recent start date
			if candidate.StartDate.After(rivals[i].OfferStartDate) {
				losing = append(losing, rivals[i])
			} else {
				candidateLoses = true
			}
		}
	}

	if candidateLoses {
		// A stronger offer holds the channel. The candidate row is still
		// created for audit and immediately superseded.
		c.logger.Debug("Candidate loses precedence",
			zap.String("product_type", candidate.ProductType),
			zap.String("channel", candidate.Channel))
		return Decision{
			OfferType:       model.OfferTypeNewNew,
			Action:          entity.ActionCreateNew,
			CandidateLoses:  true,
			SupersedeReason: ReasonSupersededByPrecedence,
		}
	}

	return Decision{
		OfferType:       model.OfferTypeNewNew,
		Action:          entity.ActionSupersedeExisting,
		Supersede:       losing,
		SupersedeReason: ReasonSupersededByPrecedence,
	}
}

// Best picks the winning offer of an active set under the precedence
// ranking, or nil for an empty set. Used to select the single current
// offer a campaign extract row carries.
func (c *OfferClassifier) Best(offers []model.Offer) *model.Offer {
	var best *model.Offer
	for i := range offers {
		if best == nil || c.beats(&offers[i], best) {
			best = &offers[i]
		}
	}
	return best
}

// rank returns the precedence rank of a product, lower is stronger.
// Products missing from the configured list rank last.
func (c *OfferClassifier) rank(product model.ProductType) int {
	if r, ok := c.rankByProduct[product]; ok {
		return r
	}
	return len(c.rankByProduct)
}

// beats reports whether offer a takes precedence over offer b
func (c *OfferClassifier) beats(a, b *model.Offer) bool {
	rankA, rankB := c.rank(a.ProductType), c.rank(b.ProductType)
	if rankA != rankB {
		return rankA < rankB
	}
	return a.OfferStartDate.After(b.OfferStartDate)
}

// sameWindow reports whether the candidate carries the exact validity
// window of the existing offer
func (c *OfferClassifier) sameWindow(offer *model.Offer, candidate *entity.CandidateOffer) bool {
	return offer.OfferStartDate.Equal(candidate.StartDate) &&
		offer.OfferEndDate.Equal(candidate.EndDate)
}

// sameTerms reports whether the candidate adds nothing over the existing
// offer
func (c *OfferClassifier) sameTerms(offer *model.Offer, candidate *entity.CandidateOffer) bool {
	return offer.Propensity == candidate.Propensity &&
		offer.OfferAmount.Equal(candidate.OfferAmount) &&
		offer.InterestRate.Equal(candidate.InterestRate)
}
