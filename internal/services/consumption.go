package services

import (
	"scribly/internal/models/db_models"
)

// BillingState is the slice of an account the draw decision needs.
type BillingState struct {
	IncludedMinutes    int64
	MinutesUsed        int64
	MinutesReserved    int64
	Credits            int64
	WalletBalanceMinor int64
}

func BillingStateOf(a *db_models.Account) BillingState {
	return BillingState{
		IncludedMinutes:    a.IncludedMinutesPerMonth,
		MinutesUsed:        a.MinutesUsedThisMonth,
		MinutesReserved:    a.MinutesReserved,
		Credits:            a.Credits,
		WalletBalanceMinor: a.WalletBalanceMinor,
	}
}

// ConsumptionPlan is the outcome of the draw decision for one job: how many
// minutes come from the subscription allotment, how many legacy credits and
// how much wallet money cover the overage, or the shortfall if nothing does.
type ConsumptionPlan struct {
	RequestedMinutes int64

	FromSubscription int64
	FromCredits      int64 // credits spent, not minutes
	CreditMinutes    int64 // minutes those credits covered
	FromWalletMinor  int64
	WalletMinutes    int64

	RatePerMinuteMinor int64
	CreditsPerMinute   int64
	Source             db_models.UsageSource

	Insufficient     bool
	ShortfallMinutes int64
	ShortfallMinor   int64
}

// ComputeConsumption decides the draw for `minutes` against the current
// billing state. Precedence: subscription allotment, then legacy credits,
// then wallet at the per-mode rate. Any remainder past all three is a
// shortfall and the job must not start.
func ComputeConsumption(minutes int64, state BillingState, pricing *db_models.PricingSettings, mode db_models.JobMode) ConsumptionPlan {
	plan := ConsumptionPlan{
		RequestedMinutes:   minutes,
		RatePerMinuteMinor: pricing.RateFor(mode),
		CreditsPerMinute:   pricing.CreditsPerMinute,
	}
	if minutes <= 0 {
		plan.Source = db_models.UsageSourceSubscription
		return plan
	}

	available := state.IncludedMinutes - state.MinutesUsed - state.MinutesReserved
	if available < 0 {
		available = 0
	}

	plan.FromSubscription = minutes
	if plan.FromSubscription > available {
		plan.FromSubscription = available
	}
	remainder := minutes - plan.FromSubscription

	if remainder > 0 && plan.CreditsPerMinute > 0 {
		coverable := state.Credits / plan.CreditsPerMinute
		plan.CreditMinutes = remainder
		if plan.CreditMinutes > coverable {
			plan.CreditMinutes = coverable
		}
		plan.FromCredits = plan.CreditMinutes * plan.CreditsPerMinute
		remainder -= plan.CreditMinutes
	}

	if remainder > 0 {
		affordable := int64(0)
		if plan.RatePerMinuteMinor > 0 {
			affordable = state.WalletBalanceMinor / plan.RatePerMinuteMinor
		}
		plan.WalletMinutes = remainder
		if plan.WalletMinutes > affordable {
			plan.WalletMinutes = affordable
		}
		plan.FromWalletMinor = plan.WalletMinutes * plan.RatePerMinuteMinor
		remainder -= plan.WalletMinutes
	}

	if remainder > 0 {
		plan.Insufficient = true
		plan.ShortfallMinutes = remainder
		plan.ShortfallMinor = remainder * plan.RatePerMinuteMinor
		return plan
	}

	plan.Source = labelSource(&plan)
	return plan
}

func labelSource(p *ConsumptionPlan) db_models.UsageSource {
	switch {
	case p.CreditMinutes == 0 && p.WalletMinutes == 0:
		return db_models.UsageSourceSubscription
	case p.FromSubscription > 0:
		return db_models.UsageSourceOverage
	case p.CreditMinutes > 0 && p.WalletMinutes == 0:
		return db_models.UsageSourceCredits
	case p.WalletMinutes > 0 && p.CreditMinutes == 0:
		return db_models.UsageSourceWallet
	default:
		return db_models.UsageSourceOverage
	}
}
