package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scribly/internal/models/db_models"
	"scribly/internal/models/request_models"
	"scribly/internal/models/response_models"
	"scribly/internal/repositories"
	"scribly/pkg/utils"
)

// Jobs still non-terminal after this long are surfaced in the stuck queue.
const stuckJobAge = 30 * time.Minute

type AdminServiceInterface interface {
	ListJobs(ctx context.Context, status string, page, pageSize int) ([]response_models.JobResponse, error)
	ListStuckJobs(ctx context.Context) ([]response_models.JobResponse, error)
	ListAccounts(ctx context.Context, page, pageSize int) ([]response_models.AccountResponse, error)
	AdjustWallet(ctx context.Context, accountID uuid.UUID, req request_models.WalletAdjustmentRequest) (*db_models.Transaction, error)
	AdjustCredits(ctx context.Context, accountID uuid.UUID, req request_models.CreditAdjustmentRequest) (*db_models.Transaction, error)
	GetPricing(ctx context.Context) (*response_models.PricingResponse, error)
	UpdatePricing(ctx context.Context, req request_models.UpdatePricingRequest) error
}

type AdminService struct {
	db          *gorm.DB
	jobRepo     repositories.JobRepository
	accountRepo repositories.AccountRepository
	pricingRepo repositories.PricingRepository
}

func NewAdminService(db *gorm.DB, jobRepo repositories.JobRepository, accountRepo repositories.AccountRepository, pricingRepo repositories.PricingRepository) AdminServiceInterface {
	return &AdminService{
		db:          db,
		jobRepo:     jobRepo,
		accountRepo: accountRepo,
		pricingRepo: pricingRepo,
	}
}

func (a *AdminService) ListJobs(ctx context.Context, status string, page, pageSize int) ([]response_models.JobResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	jobs, err := a.jobRepo.ListByStatus(ctx, db_models.JobStatus(status), page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	out := make([]response_models.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, *jobToResponse(&jobs[i]))
	}
	return out, nil
}

func (a *AdminService) ListStuckJobs(ctx context.Context) ([]response_models.JobResponse, error) {
	cutoff := time.Now().Add(-stuckJobAge).Unix()
	jobs, err := a.jobRepo.ListStuck(ctx, cutoff)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	out := make([]response_models.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, *jobToResponse(&jobs[i]))
	}
	return out, nil
}

func (a *AdminService) ListAccounts(ctx context.Context, page, pageSize int) ([]response_models.AccountResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	accounts, err := a.accountRepo.ListAll(ctx, page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	out := make([]response_models.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, *accountToResponse(&accounts[i]))
	}
	return out, nil
}

// BuildAdjustment converts an absolute target into the signed delta that is
// both applied and recorded, so the audit log always explains the change.
func BuildAdjustment(accountID uuid.UUID, kind db_models.TransactionKind, current, target int64, reason string) (int64, db_models.Transaction) {
	delta := target - current
	now := utils.NowUnixSeconds()
	return delta, db_models.Transaction{
		AccountID:     accountID,
		Kind:          kind,
		AmountMinor:   delta,
		Currency:      "USD",
		Status:        db_models.TxnStatusPaid,
		Provider:      "internal",
		ProviderTxnID: fmt.Sprintf("admin:%s:%d", accountID, now),
		PaidAt:        &now,
		Metadata:      jsonRaw(map[string]any{"reason": reason, "previous": current, "target": target}),
	}
}

func (a *AdminService) AdjustWallet(ctx context.Context, accountID uuid.UUID, req request_models.WalletAdjustmentRequest) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account db_models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", accountID).Error; err != nil {
			return utils.ErrAccountNotFound
		}

		var delta int64
		delta, txn = BuildAdjustment(accountID, db_models.TxnKindAdminAdjustment, account.WalletBalanceMinor, req.TargetBalanceMinor, req.Reason)
		if delta == 0 {
			return utils.ErrInvalidInput
		}

		if err := tx.Model(&account).
			Update("wallet_balance_minor", req.TargetBalanceMinor).Error; err != nil {
			return err
		}
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (a *AdminService) AdjustCredits(ctx context.Context, accountID uuid.UUID, req request_models.CreditAdjustmentRequest) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account db_models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", accountID).Error; err != nil {
			return utils.ErrAccountNotFound
		}

		var delta int64
		delta, txn = BuildAdjustment(accountID, db_models.TxnKindAdminAdjustment, account.Credits, req.TargetCredits, req.Reason)
		if delta == 0 {
			return utils.ErrInvalidInput
		}
		// Credit adjustments are recorded in credit units, not money.
		txn.Currency = "CRD"

		if err := tx.Model(&account).
			Update("credits", req.TargetCredits).Error; err != nil {
			return err
		}
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (a *AdminService) GetPricing(ctx context.Context) (*response_models.PricingResponse, error) {
	settings, err := a.pricingRepo.GetActive(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if settings == nil {
		return nil, utils.ErrPricingNotConfigured
	}
	return &response_models.PricingResponse{
		AIRatePerMinuteMinor:     settings.AIRatePerMinuteMinor,
		HybridRatePerMinuteMinor: settings.HybridRatePerMinuteMinor,
		HumanRatePerMinuteMinor:  settings.HumanRatePerMinuteMinor,
		CreditsPerMinute:         settings.CreditsPerMinute,
		Currency:                 settings.Currency,
	}, nil
}

func (a *AdminService) UpdatePricing(ctx context.Context, req request_models.UpdatePricingRequest) error {
	settings := &db_models.PricingSettings{
		AIRatePerMinuteMinor:     req.AIRatePerMinuteMinor,
		HybridRatePerMinuteMinor: req.HybridRatePerMinuteMinor,
		HumanRatePerMinuteMinor:  req.HumanRatePerMinuteMinor,
		CreditsPerMinute:         req.CreditsPerMinute,
		Currency:                 req.Currency,
	}
	if err := a.pricingRepo.Upsert(ctx, settings); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}
