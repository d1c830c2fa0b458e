package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
)

// CheckoutService builds hosted Stripe checkout sessions for one-time tier purchases.
type CheckoutService struct {
	repo      Repository
	provider  Provider
	stripe    config.StripeConfig
	prices    PriceTable
	publicURL string
	metrics   *metrics.Metrics
	validate  *validator.Validate
}

// NewCheckoutService wires the checkout builder. provider may be nil when
// Stripe is not configured; CreateSession then reports a config error.
func NewCheckoutService(repo Repository, provider Provider, stripeCfg config.StripeConfig, publicURL string, m *metrics.Metrics) *CheckoutService {
	return &CheckoutService{
		repo:      repo,
		provider:  provider,
		stripe:    stripeCfg,
		prices:    PriceTable(stripeCfg.PriceTiers()),
		publicURL: strings.TrimRight(publicURL, "/"),
		metrics:   m,
		validate:  validator.New(),
	}
}

// CreateSession validates the request against the signed-in account and
// returns the hosted checkout URL.
func (s *CheckoutService) CreateSession(ctx context.Context, account *models.Account, req CheckoutRequest) (string, error) {
	if err := s.stripe.CheckoutReady(); err != nil || s.provider == nil {
		log.Errorf("[Checkout] Stripe is not configured: %v", err)
		s.metrics.CheckoutSession("config_error")
		return "", apperror.Wrap(apperror.KindPaymentConfig, "payments are not configured", err)
	}
	if account == nil {
		return "", apperror.New(apperror.KindAuthRequired, "login required")
	}

	req.PriceID = strings.TrimSpace(req.PriceID)
	req.UserID = strings.TrimSpace(req.UserID)
	req.Tier = strings.ToLower(strings.TrimSpace(req.Tier))
	req.ReferralCode = strings.ToUpper(strings.TrimSpace(req.ReferralCode))
	if err := s.validate.Struct(req); err != nil {
		return "", apperror.Wrap(apperror.KindValidation, "priceId, userId and a valid tier are required", err)
	}

	accountRef := strconv.FormatUint(uint64(account.ID), 10)
	if req.UserID != accountRef && req.UserID != account.FirebaseUID {
		log.Warnf("[Checkout] userId %q does not match session account %d", req.UserID, account.ID)
		return "", apperror.New(apperror.KindForbidden, "you can only purchase for your own account")
	}

	tier, _ := entitlements.ParseTier(req.Tier)
	priceTier, ok := s.prices.Resolve(req.PriceID)
	if !ok || req.PriceID == s.stripe.PriceOrderBump {
		return "", apperror.New(apperror.KindValidation, "unknown priceId")
	}
	if priceTier != tier {
		return "", apperror.New(apperror.KindValidation, fmt.Sprintf("priceId does not belong to the %s tier", tier))
	}

	customerID, err := s.ensureCustomer(ctx, account, req.UserEmail)
	if err != nil {
		log.Errorf("[Checkout] Failed to resolve Stripe customer for account %d: %v", account.ID, err)
		s.metrics.CheckoutSession("provider_error")
		return "", apperror.Wrap(apperror.KindInternal, "could not start checkout, please try again", err)
	}

	metadata := map[string]string{
		MetaUserID: accountRef,
		MetaTier:   string(tier),
	}
	if req.ReferralCode != "" {
		metadata[MetaReferralCode] = req.ReferralCode
	}

	url, err := s.provider.CreateCheckoutSession(ctx, SessionParams{
		CustomerID:        customerID,
		ClientReferenceID: accountRef,
		PriceIDs:          s.lineItems(req),
		Metadata:          metadata,
		SuccessURL:        s.publicURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         s.publicURL + "/checkout/cancel",
	})
	if err != nil {
		log.Errorf("[Checkout] Stripe session creation failed for account %d: %v", account.ID, err)
		s.metrics.CheckoutSession("provider_error")
		return "", apperror.Wrap(apperror.KindInternal, "could not start checkout, please try again", err)
	}

	log.Infof("[Checkout] Created session for account %d tier=%s bump=%t", account.ID, tier, req.IncludeOrderBump)
	s.metrics.CheckoutSession("created")
	return url, nil
}

// lineItems adds the order bump only to the SOP bundle.
func (s *CheckoutService) lineItems(req CheckoutRequest) []string {
	items := []string{req.PriceID}
	if req.IncludeOrderBump && s.stripe.PriceOrderBump != "" && req.PriceID == s.stripe.PriceSOP {
		items = append(items, s.stripe.PriceOrderBump)
	}
	return items
}

// ensureCustomer reuses the customer id cached on the account or creates one.
func (s *CheckoutService) ensureCustomer(ctx context.Context, account *models.Account, email string) (string, error) {
	if account.StripeCustomerID != "" {
		return account.StripeCustomerID, nil
	}
	if email == "" {
		email = account.Email
	}

	customerID, err := s.provider.CreateCustomer(ctx, account.ID, email, account.Name)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetStripeCustomerID(account.ID, customerID); err != nil {
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	account.StripeCustomerID = customerID
	return customerID, nil
}
