package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribly/internal/models/db_models"
	"scribly/internal/models/request_models"
	mem "scribly/pkg/memcache"
	"scribly/pkg/utils"
)

func newAccountFixture(t *testing.T, password string) (*AccountService, *fakeAccountRepo, *fakeMail, *mem.ResetTokens, *db_models.Account) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	account := &db_models.Account{
		BaseModel:    db_models.BaseModel{ID: uuid.New()},
		Name:         "Pat",
		Email:        "pat@example.com",
		PasswordHash: hash,
		Role:         "user",
	}
	repo := newFakeAccountRepo(account)
	mail := &fakeMail{}
	tokens := mem.NewResetTokens()
	svc := NewAccountService(repo, mail, tokens).(*AccountService)
	return svc, repo, mail, tokens, account
}

func TestLogin(t *testing.T) {
	svc, _, _, _, account := newAccountFixture(t, "hunter2secret")

	resp, err := svc.Login(context.Background(), request_models.LoginRequest{
		Email:    account.Email,
		Password: "hunter2secret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.False(t, resp.IsUserHavePremium)

	claims, err := utils.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.UserID)
}

func TestLogin_PremiumFlag(t *testing.T) {
	svc, _, _, _, account := newAccountFixture(t, "hunter2secret")
	account.SubscriptionStatus = db_models.SubStatusActive

	resp, err := svc.Login(context.Background(), request_models.LoginRequest{
		Email:    account.Email,
		Password: "hunter2secret",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsUserHavePremium)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _, _, account := newAccountFixture(t, "hunter2secret")

	_, err := svc.Login(context.Background(), request_models.LoginRequest{
		Email:    account.Email,
		Password: "not-the-password",
	})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), request_models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever123",
	})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	svc, _, _, _, account := newAccountFixture(t, "hunter2secret")

	err := svc.CreateAccount(context.Background(), request_models.SignUpRequest{
		DisplayName: "Someone Else",
		Email:       account.Email,
		Password:    "password123",
	})
	assert.ErrorIs(t, err, utils.ErrEmailAlreadyExists)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	svc, _, mail, _, _ := newAccountFixture(t, "hunter2secret")

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.NoError(t, err, "must not reveal whether the address exists")
	assert.Empty(t, mail.resetTokensTo)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mail, tokens, account := newAccountFixture(t, "hunter2secret")

	require.NoError(t, svc.ForgotPassword(context.Background(), account.Email))
	require.Equal(t, []string{account.Email}, mail.resetTokensTo)

	// The generated token is opaque to the test; plant a known one instead.
	token := "known-token"
	tokens.Set(token, account.Email, resetTokenTTL)

	err := svc.ResetPasswordWithToken(context.Background(), request_models.ForgotPasswordRequest{
		Email:       account.Email,
		NewPassword: "new-password-1",
		Token:       token,
	})
	assert.NoError(t, err)

	// The token is single use.
	err = svc.ResetPasswordWithToken(context.Background(), request_models.ForgotPasswordRequest{
		Email:       account.Email,
		NewPassword: "new-password-2",
		Token:       token,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)
}

func TestResetPassword_EmailMismatch(t *testing.T) {
	svc, _, _, tokens, account := newAccountFixture(t, "hunter2secret")
	tokens.Set("tok", account.Email, resetTokenTTL)

	err := svc.ResetPasswordWithToken(context.Background(), request_models.ForgotPasswordRequest{
		Email:       "attacker@example.com",
		NewPassword: "password123",
		Token:       "tok",
	})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)
}

func TestGetAccount_NotFound(t *testing.T) {
	svc, _, _, _, _ := newAccountFixture(t, "hunter2secret")

	_, err := svc.GetAccount(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, utils.ErrAccountNotFound)
}
