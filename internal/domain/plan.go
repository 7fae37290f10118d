// Package domain contains core business types and interfaces.
//
// This file defines subscription plans and their entitlement limits.
package domain

import "time"

// Plan represents the pricing plan of an account.
type Plan string

const (
	// PlanCurious is the free plan.
	PlanCurious Plan = "curious"

	// PlanScholar is the paid plan.
	PlanScholar Plan = "scholar"
)

// PlanLimits defines the per-plan entitlement ceilings.
type PlanLimits struct {
	DailyGenerations int           // Analogies per local calendar day
	MinInterval      time.Duration // Minimum spacing between generations
	StoredAnalogies  int           // Ceiling on retained analogies
}

// Limits maps plans to their entitlement ceilings.
var Limits = map[Plan]PlanLimits{
	PlanCurious: {
		DailyGenerations: 20,
		MinInterval:      60 * time.Second,
		StoredAnalogies:  100,
	},
	PlanScholar: {
		DailyGenerations: 100,
		MinInterval:      12 * time.Second,
		StoredAnalogies:  500,
	},
}

// GetPlanLimits returns the limits for a plan, defaulting to the free plan
// for unknown values.
func GetPlanLimits(plan Plan) PlanLimits {
	if limits, ok := Limits[plan]; ok {
		return limits
	}
	return Limits[PlanCurious]
}
