package model

import (
	"strings"

	"cairo-metro-ticketing/internal/domain"
)

type PlanType string

const (
	PlanMonthly   PlanType = "monthly"
	PlanQuarterly PlanType = "quarterly"
	PlanYearly    PlanType = "yearly"
)

// SubscriptionPlan is a purchasable plan with a fixed duration and price.
type SubscriptionPlan struct {
	Type         PlanType
	DurationDays int
	Price        Money
}

var planCatalog = map[PlanType]SubscriptionPlan{
	PlanMonthly:   {Type: PlanMonthly, DurationDays: 30, Price: 18000},
	PlanQuarterly: {Type: PlanQuarterly, DurationDays: 90, Price: 50000},
	PlanYearly:    {Type: PlanYearly, DurationDays: 365, Price: 180000},
}

// LookupPlan resolves a plan by its type name, case-insensitively.
func LookupPlan(name string) (SubscriptionPlan, error) {
	p, ok := planCatalog[PlanType(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return SubscriptionPlan{}, domain.ErrInvalidPlan
	}
	return p, nil
}

// Plans lists the catalog in ascending duration.
func Plans() []SubscriptionPlan {
	return []SubscriptionPlan{planCatalog[PlanMonthly], planCatalog[PlanQuarterly], planCatalog[PlanYearly]}
}
