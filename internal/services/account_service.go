package services

import (
	"context"
	"time"

	"scribly/internal/models/db_models"
	"scribly/internal/models/request_models"
	"scribly/internal/models/response_models"
	"scribly/internal/repositories"
	mem "scribly/pkg/memcache"
	"scribly/pkg/utils"
)

const resetTokenTTL = 30 * time.Minute

type AccountServiceInterface interface {
	Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error)
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) error
	GetAccount(ctx context.Context, id string) (*response_models.AccountResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPasswordWithToken(ctx context.Context, request request_models.ForgotPasswordRequest) error
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	mailService IMailService
	resetTokens mem.ResetTokenStore
}

func NewAccountService(accountRepo repositories.AccountRepository, mailService IMailService, resetTokens mem.ResetTokenStore) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		mailService: mailService,
		resetTokens: resetTokens,
	}
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*response_models.AccountLoginResponse, error) {
	account, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := utils.CreateToken(account.ID, account.Role)
	if err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	premium := account.SubscriptionStatus == db_models.SubStatusActive ||
		account.SubscriptionStatus == db_models.SubStatusTrialing

	return &response_models.AccountLoginResponse{
		Token:             token,
		IsUserHavePremium: premium,
	}, nil
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) error {
	existing, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if existing != nil {
		return utils.ErrEmailAlreadyExists
	}

	hashed, err := utils.HashPassword(request.Password)
	if err != nil {
		return utils.ErrDatabaseError
	}

	account := &db_models.Account{
		Name:         request.DisplayName,
		Email:        request.Email,
		PasswordHash: hashed,
		Role:         "user",
	}
	if err := a.accountRepo.Insert(ctx, account); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

func (a *AccountService) GetAccount(ctx context.Context, id string) (*response_models.AccountResponse, error) {
	account, err := a.accountRepo.FindById(ctx, id)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	return accountToResponse(account), nil
}

// ForgotPassword always reports success to the caller; whether the address
// exists must not be observable from the endpoint.
func (a *AccountService) ForgotPassword(ctx context.Context, email string) error {
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return nil
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return utils.ErrDatabaseError
	}
	a.resetTokens.Set(token, account.Email, resetTokenTTL)

	return a.mailService.SendMailToResetPassword(account.Email, token)
}

func (a *AccountService) ResetPasswordWithToken(ctx context.Context, request request_models.ForgotPasswordRequest) error {
	email := a.resetTokens.Consume(request.Token)
	if email == "" || email != request.Email {
		return utils.ErrInvalidResetToken
	}

	hashed, err := utils.HashPassword(request.NewPassword)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if err := a.accountRepo.UpdatePasswordByEmail(ctx, email, hashed); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

func accountToResponse(account *db_models.Account) *response_models.AccountResponse {
	return &response_models.AccountResponse{
		ID:                   account.ID.String(),
		Name:                 account.Name,
		Email:                account.Email,
		Role:                 account.Role,
		PlanCode:             account.PlanCode,
		SubscriptionStatus:   string(account.SubscriptionStatus),
		WalletBalanceMinor:   account.WalletBalanceMinor,
		Credits:              account.Credits,
		IncludedMinutes:      account.IncludedMinutesPerMonth,
		MinutesUsed:          account.MinutesUsedThisMonth,
		MinutesReserved:      account.MinutesReserved,
		CycleStartsAt:        utils.FormatRFC3339(account.CycleStartsAt),
		CycleEndsAt:          utils.FormatRFC3339(account.CycleEndsAt),
		SubscriptionSnapshot: account.SubscriptionSnapshot,
	}
}
