package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scribly/internal/models/db_models"
	"scribly/internal/repositories"
	"scribly/pkg/utils"
)

// BillingService owns the whole reserve/settle/release protocol for
// transcription minutes. Every balance mutation happens inside a database
// transaction holding a row lock on the account, so two concurrent jobs for
// the same user cannot both see the same unreserved allotment.
type BillingService interface {
	// Reserve holds the estimate against the account, or fails with
	// *utils.InsufficientFundsError without changing anything.
	Reserve(ctx context.Context, accountID uuid.UUID, estimateMinutes int64, mode db_models.JobMode) (*ConsumptionPlan, error)

	// Settle releases the job's reservation, charges the actual duration
	// and writes exactly one usage record, all in one transaction.
	Settle(ctx context.Context, job *db_models.TranscriptionJob, actualMinutes int64) (*db_models.UsageRecord, error)

	// Release rolls a failed job's reservation back. No record, no charge.
	Release(ctx context.Context, accountID uuid.UUID, estimateMinutes int64) error
}

type billingService struct {
	db          *gorm.DB
	pricingRepo PricingRepo
}

// PricingRepo is the one repository billing needs; declared here to keep the
// service constructible with a fake in tests.
type PricingRepo interface {
	GetActive(ctx context.Context) (*db_models.PricingSettings, error)
}

func NewBillingService(db *gorm.DB, pricingRepo PricingRepo) BillingService {
	return &billingService{db: db, pricingRepo: pricingRepo}
}

func (b *billingService) Reserve(ctx context.Context, accountID uuid.UUID, estimateMinutes int64, mode db_models.JobMode) (*ConsumptionPlan, error) {
	if estimateMinutes <= 0 {
		return nil, utils.ErrInvalidInput
	}

	pricing, err := b.pricingRepo.GetActive(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if pricing == nil {
		return nil, utils.ErrPricingNotConfigured
	}

	var plan ConsumptionPlan
	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account db_models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", accountID).Error; err != nil {
			return err
		}

		plan = ComputeConsumption(estimateMinutes, BillingStateOf(&account), pricing, mode)
		if plan.Insufficient {
			return &utils.InsufficientFundsError{
				ShortfallMinutes: plan.ShortfallMinutes,
				ShortfallMinor:   plan.ShortfallMinor,
				Currency:         pricing.Currency,
			}
		}

		// The hold is taken in minutes only; money moves at settlement.
		return tx.Model(&account).
			Update("minutes_reserved", gorm.Expr("minutes_reserved + ?", estimateMinutes)).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (b *billingService) Settle(ctx context.Context, job *db_models.TranscriptionJob, actualMinutes int64) (*db_models.UsageRecord, error) {
	if actualMinutes < 0 {
		return nil, utils.ErrInvalidInput
	}

	pricing, err := b.pricingRepo.GetActive(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if pricing == nil {
		return nil, utils.ErrPricingNotConfigured
	}

	var record db_models.UsageRecord
	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account db_models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", job.AccountID).Error; err != nil {
			return err
		}

		// Release the estimate before computing the actual draw so the
		// job's own hold doesn't count against its allotment.
		state := BillingStateOf(&account)
		state.MinutesReserved -= job.EstimatedMinutes
		if state.MinutesReserved < 0 {
			state.MinutesReserved = 0
		}

		plan := ComputeConsumption(actualMinutes, state, pricing, job.Mode)
		if plan.Insufficient {
			// The work is already done; the uncovered remainder is charged
			// to the wallet even if that overdraws it.
			plan.WalletMinutes += plan.ShortfallMinutes
			plan.FromWalletMinor += plan.ShortfallMinor
			plan.Insufficient = false
			plan.ShortfallMinutes = 0
			plan.ShortfallMinor = 0
			plan.Source = db_models.UsageSourceOverage
			log.Printf("settle: account %s overdrawn by job %s", account.ID, job.ID)
		}

		reserved := account.MinutesReserved - job.EstimatedMinutes
		if reserved < 0 {
			reserved = 0
		}
		updates := map[string]interface{}{
			"minutes_reserved":        reserved,
			"minutes_used_this_month": gorm.Expr("minutes_used_this_month + ?", plan.FromSubscription),
		}
		if plan.FromCredits > 0 {
			updates["credits"] = gorm.Expr("credits - ?", plan.FromCredits)
		}
		if plan.FromWalletMinor > 0 {
			updates["wallet_balance_minor"] = gorm.Expr("wallet_balance_minor - ?", plan.FromWalletMinor)
		}
		if err := tx.Model(&account).Updates(updates).Error; err != nil {
			return err
		}

		record = db_models.UsageRecord{
			AccountID:          account.ID,
			JobID:              job.ID,
			Mode:               job.Mode,
			Source:             plan.Source,
			MinutesUsed:        plan.FromSubscription,
			CreditsUsed:        plan.FromCredits,
			WalletChargedMinor: plan.FromWalletMinor,
			RatePerMinuteMinor: plan.RatePerMinuteMinor,
			CycleStartsAt:      account.CycleStartsAt,
			CycleEndsAt:        account.CycleEndsAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			// The unique index on job_id means this job was settled by a
			// concurrent completion; roll back without charging twice.
			if repositories.IsDuplicateKeyErr(err) {
				return utils.ErrAlreadySettled
			}
			return err
		}

		if plan.FromWalletMinor > 0 {
			now := utils.NowUnixSeconds()
			charge := db_models.Transaction{
				AccountID:     account.ID,
				Kind:          db_models.TxnKindOverageCharge,
				AmountMinor:   -plan.FromWalletMinor,
				Currency:      pricing.Currency,
				Status:        db_models.TxnStatusPaid,
				Provider:      "internal",
				ProviderTxnID: fmt.Sprintf("overage:%s", job.ID),
				PaidAt:        &now,
			}
			if err := tx.Create(&charge).Error; err != nil {
				return err
			}
		}

		// Stamp the settled amounts back on the job row.
		return tx.Model(&db_models.TranscriptionJob{BaseModel: db_models.BaseModel{ID: job.ID}}).
			Updates(map[string]interface{}{
				"actual_minutes":            actualMinutes,
				"minutes_from_subscription": plan.FromSubscription,
				"credits_used":              plan.FromCredits,
				"wallet_charged_minor":      plan.FromWalletMinor,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (b *billingService) Release(ctx context.Context, accountID uuid.UUID, estimateMinutes int64) error {
	if estimateMinutes <= 0 {
		return nil
	}
	return b.db.WithContext(ctx).
		Model(&db_models.Account{}).
		Where("id = ?", accountID).
		Update("minutes_reserved", gorm.Expr("GREATEST(minutes_reserved - ?, 0)", estimateMinutes)).Error
}

// cycleResetFields zeroes the month's usage and reservation and opens a new
// cycle window. Subscription activation composes these into its atomic
// account update; applying the same window twice changes nothing further.
func cycleResetFields(startsAt, endsAt int64) map[string]interface{} {
	return map[string]interface{}{
		"minutes_used_this_month": 0,
		"minutes_reserved":        0,
		"cycle_starts_at":         startsAt,
		"cycle_ends_at":           endsAt,
	}
}
