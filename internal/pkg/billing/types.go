package billing

import (
	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

const (
	TierPolicyOverwrite = config.TierPolicyOverwrite
	TierPolicyHighest   = config.TierPolicyHighest
)

// Stripe event types handled by the processor.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventPaymentIntentFailed   = "payment_intent.payment_failed"
)

// Checkout session metadata keys.
const (
	MetaUserID       = "userId"
	MetaTier         = "tier"
	MetaReferralCode = "referralCode"
)

// CheckoutRequest is the body of POST /api/checkout.
type CheckoutRequest struct {
	PriceID          string `json:"priceId" validate:"required,max=191"`
	UserID           string `json:"userId" validate:"required,max=128"`
	UserEmail        string `json:"userEmail" validate:"omitempty,email,max=200"`
	Tier             string `json:"tier" validate:"required,oneof=sop caio launchpad"`
	ReferralCode     string `json:"referralCode" validate:"omitempty,alphanum,max=32"`
	IncludeOrderBump bool   `json:"includeOrderBump"`
}

// SessionParams is the provider-neutral input for a hosted checkout session.
type SessionParams struct {
	CustomerID        string
	ClientReferenceID string
	PriceIDs          []string
	Metadata          map[string]string
	SuccessURL        string
	CancelURL         string
}

// CompletedCheckout is the subset of a completed checkout session the
// processor acts on.
type CompletedCheckout struct {
	SessionID        string
	AccountID        uint
	Tier             entitlements.Tier
	AmountTotal      int64
	ReferralCode     string
	StripeCustomerID string
}

// WebhookResult summarises the handling of one verified delivery.
type WebhookResult struct {
	EventID         string
	EventType       string
	Duplicate       bool
	Applied         bool
	ProcessingError string
}
