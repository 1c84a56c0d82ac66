package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	payos "github.com/payOSHQ/payos-lib-golang"
	"gorm.io/gorm"

	"scribly/internal/models/db_models"
	"scribly/internal/models/response_models"
	"scribly/internal/repositories"
	"scribly/pkg/utils"
)

type PayOSConfig struct {
	ClientID     string
	ApiKey       string
	ChecksumKey  string // secret used to sign webhooks
	ReturnURL    string
	CancelURL    string
	ProviderName string // "payos" (stored on Transaction.Provider)
}

type PaymentService interface {
	CreateCheckoutForPlan(ctx context.Context, accountID uuid.UUID, planCode string) (*response_models.CreateCheckoutResponse, error)
	CreateWalletTopup(ctx context.Context, accountID uuid.UUID, amountMinor int64) (*response_models.CreateCheckoutResponse, error)
	HandleWebhook(c *gin.Context)
}

type paymentService struct {
	db          *gorm.DB
	cfg         PayOSConfig
	planRepo    repositories.PlanRepository
	webhookRepo repositories.WebhookEventRepository
	mail        IMailService
}

func NewPaymentService(
	db *gorm.DB,
	cfg PayOSConfig,
	planRepo repositories.PlanRepository,
	webhookRepo repositories.WebhookEventRepository,
	mail IMailService,
) (PaymentService, error) {
	if cfg.ClientID == "" || cfg.ApiKey == "" || cfg.ChecksumKey == "" {
		return nil, errors.New("missing payOS credentials")
	}
	if err := payos.Key(cfg.ClientID, cfg.ApiKey, cfg.ChecksumKey); err != nil {
		return nil, fmt.Errorf("payos client init: %w", err)
	}
	return &paymentService{
		db:          db,
		cfg:         cfg,
		planRepo:    planRepo,
		webhookRepo: webhookRepo,
		mail:        mail,
	}, nil
}

// newOrderCode generates a payOS order code (int64, max 13 digits). Unix
// seconds plus a short random suffix keeps collisions unlikely.
func newOrderCode() int64 {
	return time.Now().Unix()%1_000_000_000*10_000 + int64(rand.Intn(9000)+1000)
}

func (p *paymentService) CreateCheckoutForPlan(ctx context.Context, accountID uuid.UUID, planCode string) (*response_models.CreateCheckoutResponse, error) {
	plan, err := p.planRepo.FindByCode(ctx, planCode)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}
	if plan.PriceMinor <= 0 {
		return nil, fmt.Errorf("plan %s is not billable (amount=%d)", planCode, plan.PriceMinor)
	}

	meta := map[string]any{"plan_id": plan.ID, "plan_code": plan.Code}
	return p.createCheckout(ctx, accountID, db_models.TxnKindSubscription, plan.PriceMinor,
		strings.ToUpper(plan.Currency), fmt.Sprintf("Subscription %s", plan.Code), meta)
}

func (p *paymentService) CreateWalletTopup(ctx context.Context, accountID uuid.UUID, amountMinor int64) (*response_models.CreateCheckoutResponse, error) {
	if amountMinor <= 0 {
		return nil, utils.ErrInvalidInput
	}
	return p.createCheckout(ctx, accountID, db_models.TxnKindWalletTopup, amountMinor,
		"USD", "Wallet top-up", map[string]any{"topup_minor": amountMinor})
}

// createCheckout records a pending Transaction first, then asks the gateway
// for a payment link. The ProviderTxnID ties the webhook back to our row.
func (p *paymentService) createCheckout(ctx context.Context, accountID uuid.UUID, kind db_models.TransactionKind, amount int64, currency, description string, meta map[string]any) (*response_models.CreateCheckoutResponse, error) {
	orderCode := newOrderCode()

	txn := &db_models.Transaction{
		AccountID:     accountID,
		Kind:          kind,
		AmountMinor:   amount,
		Currency:      currency,
		Status:        db_models.TxnStatusPending,
		Provider:      p.cfg.ProviderName,
		ProviderTxnID: fmt.Sprintf("payos:%d", orderCode),
	}
	if err := p.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	body := payos.CheckoutRequestType{
		OrderCode:   orderCode,
		Amount:      int(amount),
		Items:       []payos.Item{{Name: description, Price: int(amount), Quantity: 1}},
		Description: description,
		CancelUrl:   p.cfg.CancelURL,
		ReturnUrl:   p.cfg.ReturnURL,
	}

	resp, err := payos.CreatePaymentLink(body)
	if err != nil {
		_ = p.db.WithContext(ctx).Model(txn).
			Update("status", db_models.TxnStatusFailed).Error
		return nil, fmt.Errorf("payos create link: %w", err)
	}

	if bytes, _ := json.Marshal(meta); bytes != nil {
		_ = p.db.WithContext(ctx).Model(txn).Update("metadata", bytes).Error
	}

	return &response_models.CreateCheckoutResponse{
		OrderCode:    orderCode,
		Amount:       amount,
		PaymentURL:   resp.CheckoutUrl,
		ProviderName: p.cfg.ProviderName,
	}, nil
}

func (p *paymentService) HandleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	var body payos.WebhookType
	if err := json.Unmarshal(rawBody, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	// Unverifiable signatures are rejected before any payload field is
	// trusted.
	data, verifyErr := payos.VerifyPaymentWebhookData(body)
	if verifyErr != nil || data == nil {
		log.Printf("webhook: signature verification failed: %v", verifyErr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to verify webhook data"})
		return
	}

	// payOS sends a fixed probe order during endpoint registration.
	if data.OrderCode == 123 {
		c.JSON(http.StatusOK, gin.H{"message": "Webhook confirmed"})
		return
	}

	ctx := c.Request.Context()
	event := &db_models.WebhookEvent{
		Provider:        p.cfg.ProviderName,
		ProviderEventID: fmt.Sprintf("payos:%d:%s", data.OrderCode, data.Code),
		EventType:       "payment." + data.Code,
		Payload:         rawBody,
	}

	firstDelivery, err := applyWebhookOnce(ctx, p.webhookRepo, event, func(ctx context.Context) error {
		return p.applyPaidOrder(ctx, data.OrderCode)
	})
	if err != nil {
		log.Printf("webhook: failed to process order %d: %v", data.OrderCode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process transaction"})
		return
	}
	if !firstDelivery {
		// Replayed delivery: already applied, ack without reprocessing.
		c.JSON(http.StatusOK, gin.H{"message": "Duplicate event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}

// applyWebhookOnce records the event under its provider id and runs apply
// only on the first delivery. Replays return (false, nil) so the caller can
// ack them without touching any state. Events whose apply fails are left
// unprocessed so the gap shows up in the webhook_events table.
func applyWebhookOnce(ctx context.Context, repo repositories.WebhookEventRepository, event *db_models.WebhookEvent, apply func(context.Context) error) (bool, error) {
	firstDelivery, err := repo.RecordOnce(ctx, event)
	if err != nil {
		return false, err
	}
	if !firstDelivery {
		return false, nil
	}

	if err := apply(ctx); err != nil {
		return true, err
	}

	if err := repo.MarkProcessed(ctx, event.ProviderEventID, utils.NowUnixSeconds()); err != nil {
		log.Printf("webhook: mark processed %s: %v", event.ProviderEventID, err)
	}
	return true, nil
}

func (p *paymentService) applyPaidOrder(ctx context.Context, orderCode int64) error {
	providerTxn := fmt.Sprintf("payos:%d", orderCode)

	var txn db_models.Transaction
	if err := p.db.WithContext(ctx).
		Where("provider_txn_id = ?", providerTxn).
		First(&txn).Error; err != nil {
		// Ack unknown orders: retrying will not make them appear.
		log.Printf("webhook: transaction not found for order %d", orderCode)
		return nil
	}
	if txn.Status == db_models.TxnStatusPaid {
		return nil
	}

	now := utils.NowUnixSeconds()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&txn).Updates(map[string]interface{}{
			"status":  db_models.TxnStatusPaid,
			"paid_at": now,
		}).Error; err != nil {
			return err
		}

		switch txn.Kind {
		case db_models.TxnKindWalletTopup:
			return tx.Model(&db_models.Account{BaseModel: db_models.BaseModel{ID: txn.AccountID}}).
				Update("wallet_balance_minor", gorm.Expr("wallet_balance_minor + ?", txn.AmountMinor)).Error
		default:
			return p.activateSubscription(tx, &txn)
		}
	})
	if err != nil {
		return err
	}

	var account db_models.Account
	if err := p.db.WithContext(ctx).First(&account, "id = ?", txn.AccountID).Error; err == nil {
		if mailErr := p.mail.SendPaymentReceipt(account.Email, txn.AmountMinor, txn.Currency); mailErr != nil {
			log.Printf("webhook: receipt mail: %v", mailErr)
		}
	}
	return nil
}

// NextPeriodEnd computes the end of a billing window from its start.
func NextPeriodEnd(starts time.Time, period db_models.BillingPeriod) time.Time {
	if period == db_models.PeriodYear {
		return starts.AddDate(1, 0, 0)
	}
	return starts.AddDate(0, 1, 0)
}

func (p *paymentService) activateSubscription(tx *gorm.DB, txn *db_models.Transaction) error {
	type meta struct {
		PlanID   uuid.UUID `json:"plan_id"`
		PlanCode string    `json:"plan_code"`
	}
	var m meta
	if err := json.Unmarshal(txn.Metadata, &m); err != nil || m.PlanCode == "" {
		return fmt.Errorf("missing plan info in transaction metadata")
	}

	var plan db_models.Plan
	if err := tx.Where("id = ? AND is_active = TRUE", m.PlanID).First(&plan).Error; err != nil {
		return fmt.Errorf("plan not found while activating: %w", err)
	}

	now := time.Now().UTC()
	starts := now

	// A renewal while the current period still runs extends from its end.
	var current db_models.Subscription
	err := tx.
		Where("account_id = ? AND status IN ? AND ends_at >= ?",
			txn.AccountID,
			[]db_models.SubscriptionStatus{db_models.SubStatusActive, db_models.SubStatusTrialing, db_models.SubStatusPastDue},
			now.Add(-24*time.Hour).Unix()).
		Order("ends_at DESC").
		First(&current).Error
	if err == nil && current.Status == db_models.SubStatusActive && current.AutoRenew && current.EndsAt > now.Unix() {
		starts = time.Unix(current.EndsAt, 0).UTC()
	}

	ends := NextPeriodEnd(starts, plan.Period)
	startsAt := starts.Unix()
	endsAt := ends.Unix()

	sub := db_models.Subscription{
		AccountID: txn.AccountID,
		PlanID:    plan.ID,
		Status:    db_models.SubStatusActive,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		AutoRenew: true,

		Provider:      p.cfg.ProviderName,
		ProviderSubID: strconv.FormatInt(time.Now().UnixNano(), 10),

		Metadata: jsonRaw(map[string]any{
			"activated_by_txn": txn.ID,
			"amount_minor":     txn.AmountMinor,
			"currency":         txn.Currency,
		}),
	}
	if err := tx.Create(&sub).Error; err != nil {
		return err
	}

	// Snapshot the plan on the account and open a fresh usage cycle. The
	// cycle reset itself is billing's; composing the fields here keeps the
	// whole activation one atomic write.
	updates := cycleResetFields(startsAt, endsAt)
	updates["plan_code"] = plan.Code
	updates["subscription_status"] = db_models.SubStatusActive
	updates["included_minutes_per_month"] = plan.IncludedMinutes
	updates["subscription_snapshot"] = jsonRaw(sub)
	return tx.Model(&db_models.Account{BaseModel: db_models.BaseModel{ID: txn.AccountID}}).
		Updates(updates).Error
}

func jsonRaw(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
