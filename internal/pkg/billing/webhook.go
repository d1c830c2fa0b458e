package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/refcode"
)

var errNoTier = errors.New("no tier could be resolved for checkout session")

// Processor verifies Stripe webhook deliveries and applies their effects:
// tier upgrades and referral commissions.
type Processor struct {
	repo     Repository
	provider Provider
	stripe   config.StripeConfig
	prices   PriceTable
	policy   string
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewProcessor wires the webhook processor. provider is only used to fetch
// line items when a session arrives without tier metadata and may be nil.
func NewProcessor(repo Repository, provider Provider, stripeCfg config.StripeConfig, tierPolicy string, m *metrics.Metrics) *Processor {
	stripeCfg.WebhookSecret = strings.TrimSpace(stripeCfg.WebhookSecret)
	return &Processor{
		repo:     repo,
		provider: provider,
		stripe:   stripeCfg,
		prices:   PriceTable(stripeCfg.PriceTiers()),
		policy:   tierPolicy,
		metrics:  m,
		now:      time.Now,
	}
}

// Process handles one delivery. Only configuration and signature problems
// are returned as errors; failures after verification are logged, stored on
// the webhook event row and reported in the result so the caller can still
// acknowledge the delivery.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if err := p.stripe.WebhookReady(); err != nil {
		log.Error("[Webhook] STRIPE_WEBHOOK_SECRET is not set")
		return nil, apperror.Wrap(apperror.KindPaymentConfig, "webhook not configured", err)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.stripe.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warnf("[Webhook] Signature verification failed: %v", err)
		p.metrics.WebhookEvent("unknown", "invalid_signature")
		return nil, apperror.Wrap(apperror.KindWebhookSignature, "signature verification failed", err)
	}

	eventType := string(event.Type)
	result := &WebhookResult{EventID: event.ID, EventType: eventType}

	created, stored, err := p.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		Provider:        models.WebhookProviderStripe,
		ProviderEventID: event.ID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		log.Errorf("[Webhook] Failed to record event %s: %v", event.ID, err)
		result.ProcessingError = err.Error()
		p.metrics.WebhookEvent(eventType, "error")
		return result, nil
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		log.Infof("[Webhook] Duplicate delivery of %s (%s) ignored", event.ID, eventType)
		result.Duplicate = true
		p.metrics.WebhookEvent(eventType, "duplicate")
		return result, nil
	}

	applied, err := p.dispatch(ctx, &event)
	processingError := ""
	if err != nil {
		processingError = err.Error()
		log.Errorf("[Webhook] Processing %s (%s) failed: %v", event.ID, eventType, err)
	}
	if markErr := p.repo.MarkWebhookProcessed(stored.ID, processingError); markErr != nil {
		log.Errorf("[Webhook] Failed to mark event %s processed: %v", event.ID, markErr)
	}

	result.Applied = applied
	result.ProcessingError = processingError
	switch {
	case err != nil:
		p.metrics.WebhookEvent(eventType, "error")
	case applied:
		p.metrics.WebhookEvent(eventType, "applied")
	default:
		p.metrics.WebhookEvent(eventType, "ignored")
	}
	return result, nil
}

func (p *Processor) dispatch(ctx context.Context, event *stripe.Event) (bool, error) {
	switch string(event.Type) {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return false, fmt.Errorf("decode checkout session: %w", err)
		}
		if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			log.Infof("[Webhook] Session %s completed unpaid, waiting for async payment", sess.ID)
			return false, nil
		}
		return p.fulfil(ctx, event.ID, &sess)

	case EventAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return false, fmt.Errorf("decode checkout session: %w", err)
		}
		return p.fulfil(ctx, event.ID, &sess)

	case EventPaymentIntentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return false, fmt.Errorf("decode payment intent: %w", err)
		}
		reason := ""
		if intent.LastPaymentError != nil {
			reason = intent.LastPaymentError.Msg
		}
		log.Warnf("[Webhook] Payment failed intent=%s user=%s reason=%q", intent.ID, intent.Metadata[MetaUserID], reason)
		return false, nil

	case EventAsyncPaymentFailed:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return false, fmt.Errorf("decode checkout session: %w", err)
		}
		log.Warnf("[Webhook] Async payment failed session=%s user=%s", sess.ID, sess.Metadata[MetaUserID])
		return false, nil

	default:
		return false, nil
	}
}

// fulfil applies a paid checkout session: tier first, then referral.
func (p *Processor) fulfil(ctx context.Context, eventID string, sess *stripe.CheckoutSession) (bool, error) {
	checkout, err := p.completedCheckout(ctx, sess)
	if err != nil {
		if errors.Is(err, errNoTier) {
			log.Warnf("[Webhook] Session %s: %v, nothing applied", sess.ID, err)
		}
		return false, err
	}

	account, err := p.repo.GetAccountByID(checkout.AccountID)
	if err != nil {
		return false, fmt.Errorf("load account %d: %w", checkout.AccountID, err)
	}

	newTier := applyTierPolicy(p.policy, account.EntitlementTier(), checkout.Tier)
	if err := p.repo.UpdateAccountTier(account.ID, newTier, p.now()); err != nil {
		return false, fmt.Errorf("update tier for account %d: %w", account.ID, err)
	}
	if account.StripeCustomerID == "" && checkout.StripeCustomerID != "" {
		if err := p.repo.SetStripeCustomerID(account.ID, checkout.StripeCustomerID); err != nil {
			log.Warnf("[Webhook] Could not cache customer id for account %d: %v", account.ID, err)
		}
	}
	log.Infof("[Webhook] Account %d tier %s -> %s (purchased %s, policy %s)",
		account.ID, account.EntitlementTier(), newTier, checkout.Tier, p.policy)
	p.metrics.TierChange(string(newTier), "stripe")

	if err := p.attributeReferral(eventID, account, checkout); err != nil {
		return true, err
	}
	return true, nil
}

// completedCheckout extracts account, tier and referral data from a session.
func (p *Processor) completedCheckout(ctx context.Context, sess *stripe.CheckoutSession) (*CompletedCheckout, error) {
	ref := strings.TrimSpace(sess.Metadata[MetaUserID])
	if ref == "" {
		ref = strings.TrimSpace(sess.ClientReferenceID)
	}
	accountID, err := strconv.ParseUint(ref, 10, 64)
	if err != nil || accountID == 0 {
		return nil, fmt.Errorf("session %s has no usable account reference %q", sess.ID, ref)
	}

	tier, err := p.resolveTier(ctx, sess)
	if err != nil {
		return nil, err
	}

	out := &CompletedCheckout{
		SessionID:    sess.ID,
		AccountID:    uint(accountID),
		Tier:         tier,
		AmountTotal:  sess.AmountTotal,
		ReferralCode: strings.ToUpper(strings.TrimSpace(sess.Metadata[MetaReferralCode])),
	}
	if sess.Customer != nil {
		out.StripeCustomerID = sess.Customer.ID
	}
	return out, nil
}

// resolveTier prefers the tier metadata and falls back to the purchased prices.
func (p *Processor) resolveTier(ctx context.Context, sess *stripe.CheckoutSession) (entitlements.Tier, error) {
	if tier, ok := entitlements.ParseTier(sess.Metadata[MetaTier]); ok && tier != entitlements.TierFree {
		return tier, nil
	}

	var prices []string
	if sess.LineItems != nil && len(sess.LineItems.Data) > 0 {
		for _, item := range sess.LineItems.Data {
			if item.Price != nil {
				prices = append(prices, item.Price.ID)
			}
		}
	} else if p.provider != nil && sess.ID != "" {
		fetched, err := p.provider.ListLineItemPrices(ctx, sess.ID)
		if err != nil {
			return "", fmt.Errorf("fetch line items for %s: %w", sess.ID, err)
		}
		prices = fetched
	}

	tier, ok := p.prices.ResolveBestTier(prices)
	if !ok {
		return "", errNoTier
	}
	return tier, nil
}

// attributeReferral records a pending commission for a valid, non-self referral.
func (p *Processor) attributeReferral(eventID string, buyer *models.Account, checkout *CompletedCheckout) error {
	if checkout.ReferralCode == "" || checkout.AmountTotal <= 0 {
		return nil
	}

	referrer, err := p.repo.GetAccountByReferralCode(checkout.ReferralCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Infof("[Webhook] Unknown referral code %q on session %s, skipped", checkout.ReferralCode, checkout.SessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve referral code %q: %w", checkout.ReferralCode, err)
	}
	if referrer.ID == buyer.ID {
		log.Infof("[Webhook] Self-referral by account %d skipped", buyer.ID)
		return nil
	}

	record := &models.ReferralRecord{
		ReferrerID:     referrer.ID,
		ReferredID:     buyer.ID,
		ReferralCode:   refcode.Normalize(checkout.ReferralCode),
		PurchaseAmount: checkout.AmountTotal,
		Commission:     models.Commission(checkout.AmountTotal),
		Status:         models.REFERRAL_STATUS_PENDING,
		StripeEventID:  eventID,
	}
	created, err := p.repo.CreateReferralIfNotExists(record)
	if err != nil {
		return fmt.Errorf("create referral: %w", err)
	}
	if created {
		log.Infof("[Webhook] Referral recorded referrer=%d buyer=%d commission=%d", referrer.ID, buyer.ID, record.Commission)
		p.metrics.Referral()
	}
	return nil
}
