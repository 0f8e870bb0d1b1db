package billing

import (
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// PlanMapper translates payment-processor price identifiers into
// internal plan tiers.
type PlanMapper struct {
	basicPriceID string
	proPriceID   string
	logger       zerolog.Logger
}

func NewPlanMapper(basicPriceID, proPriceID string, logger zerolog.Logger) *PlanMapper {
	return &PlanMapper{basicPriceID: basicPriceID, proPriceID: proPriceID, logger: logger}
}

// PlanFromPrice maps a price id to a plan tier. Ids other than the
// configured basic price resolve to pro, so prices added in the
// processor dashboard keep working without a deploy; unrecognized ids
// are logged as an operational signal.
func (m *PlanMapper) PlanFromPrice(priceID string) domain.PlanType {
	switch priceID {
	case "":
		return domain.PlanFree
	case m.basicPriceID:
		return domain.PlanBasic
	case m.proPriceID:
		return domain.PlanPro
	}
	m.logger.Warn().Str("price_id", priceID).Msg("unrecognized price id, defaulting to pro")
	return domain.PlanPro
}

// PriceForPlan returns the configured price id for a purchasable tier.
func (m *PlanMapper) PriceForPlan(plan domain.PlanType) (string, error) {
	switch plan {
	case domain.PlanBasic:
		return m.basicPriceID, nil
	case domain.PlanPro:
		return m.proPriceID, nil
	}
	return "", domain.ErrUnsupportedPlan
}
