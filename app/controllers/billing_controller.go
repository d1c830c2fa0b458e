package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/billing"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

// CheckoutCreator builds hosted checkout sessions.
type CheckoutCreator interface {
	CreateSession(ctx context.Context, account *models.Account, req billing.CheckoutRequest) (string, error)
}

// WebhookProcessor verifies and applies payment provider events.
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) (*billing.WebhookResult, error)
}

const (
	checkoutSuccessRedirect = "/dashboard"
	checkoutCancelRedirect  = "/pricing"
)

type BillingController struct {
	checkout  CheckoutCreator
	processor WebhookProcessor
}

func NewBillingController(checkout CheckoutCreator, processor WebhookProcessor) *BillingController {
	return &BillingController{checkout: checkout, processor: processor}
}

// HandleStripeWebhook answers 200 for every verified delivery, including
// ones whose processing failed; the failure is stored with the event.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	result, err := bc.processor.Process(c.UserContext(), payload, c.Get("Stripe-Signature"))
	if err != nil {
		if apperror.KindOf(err) == apperror.KindPaymentConfig {
			log.Error("[Billing] Webhook received but STRIPE_WEBHOOK_SECRET is not set")
		}
		return apperror.Respond(c, err)
	}

	resp := fiber.Map{"received": true}
	if result != nil && result.Duplicate {
		resp["duplicate"] = true
	}
	return c.JSON(resp)
}

// HandleCreateCheckout returns the hosted checkout URL for the caller.
func (bc *BillingController) HandleCreateCheckout(c *fiber.Ctx) error {
	var req billing.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "request body must be a JSON object"))
	}

	url, err := bc.checkout.CreateSession(c.UserContext(), usercontext.Account(c), req)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

func (bc *BillingController) HandleCheckoutSuccess(c *fiber.Ctx) error {
	if sessionID := strings.TrimSpace(c.Query("session_id")); sessionID != "" {
		log.Infof("[Billing] Checkout %s returned to success page", sessionID)
	}
	fm := fiber.Map{
		"type":    "success",
		"message": "Payment received. Your access will be unlocked in a moment.",
	}
	return flash.WithSuccess(c, fm).Redirect(checkoutSuccessRedirect, fiber.StatusSeeOther)
}

func (bc *BillingController) HandleCheckoutCancel(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type":    "info",
		"message": "Checkout was cancelled. You have not been charged.",
	}
	return flash.WithInfo(c, fm).Redirect(checkoutCancelRedirect, fiber.StatusSeeOther)
}
