package domain

import (
	"fmt"
	"sort"
)

// Plan is a named billing tier tied to one processor price identifier.
type Plan struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	DurationDays  int     `json:"duration"`
	StripePriceID string  `json:"stripePriceId"`
}

const (
	PlanWeekly     = "weekly"
	PlanMonthly    = "monthly"
	PlanQuarterly  = "quarterly"
	PlanHalfYearly = "half_yearly"
	PlanAnnual     = "annual"
)

// PlanCatalog is the fixed, read-only table of plans.
type PlanCatalog struct {
	byID      map[string]Plan
	byPriceID map[string]string
}

// NewPlanCatalog indexes plans by id and by processor price id. Duplicate price ids
// are rejected so every price maps to exactly one plan.
func NewPlanCatalog(plans ...Plan) (*PlanCatalog, error) {
	c := &PlanCatalog{
		byID:      make(map[string]Plan, len(plans)),
		byPriceID: make(map[string]string, len(plans)),
	}
	for _, p := range plans {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("plan catalog: duplicate plan id %q", p.ID)
		}
		if other, dup := c.byPriceID[p.StripePriceID]; dup {
			return nil, fmt.Errorf("plan catalog: price %q used by %q and %q", p.StripePriceID, other, p.ID)
		}
		c.byID[p.ID] = p
		c.byPriceID[p.StripePriceID] = p.ID
	}
	return c, nil
}

// DefaultPlanCatalog returns the production catalog.
func DefaultPlanCatalog() *PlanCatalog {
	c, err := NewPlanCatalog(
		Plan{ID: PlanWeekly, Name: "Weekly Plan", Price: 10.00, DurationDays: 7, StripePriceID: "price_1SCRq2RwI7AZXoqH3Z3qCWZl"},
		Plan{ID: PlanMonthly, Name: "Monthly Plan", Price: 99.00, DurationDays: 30, StripePriceID: "price_1SCRQcRwI7AZXoqHxRHIpQqt"},
		Plan{ID: PlanQuarterly, Name: "Quarterly Plan", Price: 299.00, DurationDays: 90, StripePriceID: "price_1SCRVRRwI7AZXoqHsVE2HPUk"},
		Plan{ID: PlanHalfYearly, Name: "Half-Yearly Plan", Price: 599.00, DurationDays: 180, StripePriceID: "price_1SCRaLRwI7AZXoqHmfqVehUp"},
		Plan{ID: PlanAnnual, Name: "Annual Plan", Price: 1199.00, DurationDays: 365, StripePriceID: "price_1SCL0MRwI7AZXoqH5c8kSWSZ"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the plan with the given internal id.
func (c *PlanCatalog) Get(id string) (Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: plan %q", ErrUnknownPlan, id)
	}
	return p, nil
}

// ByPriceID maps a processor price id to its plan.
func (c *PlanCatalog) ByPriceID(priceID string) (Plan, error) {
	id, ok := c.byPriceID[priceID]
	if !ok {
		return Plan{}, fmt.Errorf("%w: price %q", ErrUnknownPlan, priceID)
	}
	return c.byID[id], nil
}

// Resolve picks the plan for a processor subscription. The price id is authoritative
// when present; the metadata plan id is only consulted when no price is known. When
// both are present they must agree.
func (c *PlanCatalog) Resolve(priceID, metadataPlan string) (Plan, error) {
	switch {
	case priceID != "":
		p, err := c.ByPriceID(priceID)
		if err != nil {
			return Plan{}, err
		}
		if metadataPlan != "" && metadataPlan != p.ID {
			return Plan{}, fmt.Errorf("%w: price %q belongs to %q, metadata says %q", ErrPlanResolution, priceID, p.ID, metadataPlan)
		}
		return p, nil
	case metadataPlan != "":
		return c.Get(metadataPlan)
	default:
		return Plan{}, fmt.Errorf("%w: subscription carries no plan reference", ErrPlanResolution)
	}
}

// List returns all plans ordered by duration.
func (c *PlanCatalog) List() []Plan {
	out := make([]Plan, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DurationDays < out[j].DurationDays })
	return out
}
