package authcore

import "time"

// Plan names recognized by the built-in table.
const (
	PlanTrial      = "trial"
	PlanMonthly    = "monthly"
	PlanQuarterly  = "quarterly"
	PlanSemiannual = "semiannual"
	PlanAnnual     = "annual"
	PlanAdmin      = "admin"
	PlanUnlimited  = "unlimited"
)

const (
	// planUnlimitedDays is the sentinel duration for administrative
	// plans: one hundred years, effectively unbounded.
	planUnlimitedDays = 36500

	// planDefaultDays is reported by TotalDays for plans missing from
	// the table. Unknown plans have nothing *left* (RemainingDays is 0)
	// but still need a nominal length for display, so the two lookups
	// deliberately disagree on the fallback.
	planDefaultDays = 30
)

// PlanTable maps plan names to validity in days.
type PlanTable map[string]int

// NewPlanTable returns the built-in plan table with overrides merged in.
func NewPlanTable(overrides PlansConfig) PlanTable {
	table := PlanTable{
		PlanTrial:      15,
		PlanMonthly:    30,
		PlanQuarterly:  90,
		PlanSemiannual: 180,
		PlanAnnual:     365,
		PlanAdmin:      planUnlimitedDays,
		PlanUnlimited:  planUnlimitedDays,
	}
	for name, days := range overrides {
		table[name] = days
	}
	return table
}

// TotalDays returns the nominal validity of a plan in days, or the
// default of 30 for an unrecognized plan name.
func (t PlanTable) TotalDays(plan string) int {
	if days, ok := t[plan]; ok {
		return days
	}
	return planDefaultDays
}

// RemainingDays returns how many whole days of validity are left for a
// plan started at start, never negative. Unknown plans and absent start
// timestamps have nothing remaining.
func (t PlanTable) RemainingDays(plan string, start *time.Time, now time.Time) int {
	days, ok := t[plan]
	if !ok || start == nil {
		return 0
	}

	expiry := start.Add(time.Duration(days) * 24 * time.Hour)
	remaining := int(expiry.Sub(now).Hours() / 24)
	if remaining < 0 {
		return 0
	}
	return remaining
}
