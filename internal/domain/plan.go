package domain

// unlimitedProducts marks plans without a product cap.
const unlimitedProducts = -1

var productLimits = map[PlanType]int{
	PlanFree:      3,
	PlanBasic:     100,
	PlanPro:       unlimitedProducts,
	PlanUnlimited: unlimitedProducts,
}

// ProductLimit returns the product allowance for a plan and whether the
// plan is capped at all. Unknown plans fall back to the free allowance.
func ProductLimit(plan PlanType) (limit int, capped bool) {
	l, ok := productLimits[plan]
	if !ok {
		l = productLimits[PlanFree]
	}
	if l == unlimitedProducts {
		return 0, false
	}
	return l, true
}

// CheckProductLimit gates a product creation. count must be the live
// number of active products recomputed at decision time, not the
// profile's advisory counter.
func CheckProductLimit(plan PlanType, count int) error {
	limit, capped := ProductLimit(plan)
	if !capped {
		return nil
	}
	if count < limit {
		return nil
	}
	return &PlanLimitError{Plan: plan, Limit: limit}
}
