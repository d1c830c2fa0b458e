package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos   *repository.Repositories
	metrics *metrics.Metrics
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories, m *metrics.Metrics) *AdminController {
	return &AdminController{repos: repos, metrics: m}
}

// HandleAccounts lists accounts, or searches them with ?q=.
func (ac *AdminController) HandleAccounts(c *fiber.Ctx) error {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		accounts, err := ac.repos.Account.Search(q)
		if err != nil {
			return ac.handleError(c, "Failed to search accounts", err)
		}
		return c.JSON(fiber.Map{"items": adminAccountsJSON(accounts), "total": len(accounts)})
	}

	page, perPage, offset := pagination(c)
	accounts, err := ac.repos.Account.List(offset, perPage)
	if err != nil {
		return ac.handleError(c, "Failed to list accounts", err)
	}
	total, err := ac.repos.Account.Count()
	if err != nil {
		return ac.handleError(c, "Failed to count accounts", err)
	}
	return c.JSON(fiber.Map{
		"items":    adminAccountsJSON(accounts),
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}

func (ac *AdminController) HandleReferrals(c *fiber.Ctx) error {
	page, perPage, offset := pagination(c)
	records, err := ac.repos.Referral.List(offset, perPage)
	if err != nil {
		return ac.handleError(c, "Failed to list referrals", err)
	}
	total, err := ac.repos.Referral.Count()
	if err != nil {
		return ac.handleError(c, "Failed to count referrals", err)
	}
	return c.JSON(fiber.Map{
		"items":    records,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}

type updateTierRequest struct {
	Tier string `json:"tier"`
}

// HandleUpdateTier overrides an account's tier. It does not stamp a purchase.
func (ac *AdminController) HandleUpdateTier(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "account not found"))
	}
	var req updateTierRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "request body must be a JSON object"))
	}
	tier, ok := entitlements.ParseTier(req.Tier)
	if !ok {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "tier must be one of: free, sop, caio, launchpad"))
	}

	account, err := ac.repos.Account.GetByID(id)
	if err != nil {
		return ac.lookupError(c, err)
	}
	if err := ac.repos.Account.UpdateTier(id, tier, nil); err != nil {
		return ac.handleError(c, "Failed to update tier", err)
	}
	ac.metrics.TierChange(string(tier), "admin")
	log.Infof("[Admin] Account %d tier changed %s -> %s by admin %d", id, account.EntitlementTier(), tier, usercontext.GetAccountID(c))

	account.Tier = tier
	return c.JSON(adminAccountJSON(account))
}

// HandleDeleteAccount soft deletes an account and ends its sessions.
func (ac *AdminController) HandleDeleteAccount(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "account not found"))
	}
	if id == usercontext.GetAccountID(c) {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "you cannot delete your own account"))
	}
	if _, err := ac.repos.Account.GetByID(id); err != nil {
		return ac.lookupError(c, err)
	}
	if err := ac.repos.Account.RevokeSessions(id, time.Now()); err != nil {
		log.Warnf("[Admin] Failed to revoke sessions for account %d: %v", id, err)
	}
	if err := ac.repos.Account.Delete(id); err != nil {
		return ac.handleError(c, "Failed to delete account", err)
	}
	log.Infof("[Admin] Account %d deleted by admin %d", id, usercontext.GetAccountID(c))
	return c.SendStatus(fiber.StatusNoContent)
}

func (ac *AdminController) lookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "account not found"))
	}
	return ac.handleError(c, "Failed to load account", err)
}

func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Admin] %s: %v", message, err)
	return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, strings.ToLower(message[:1])+message[1:], err))
}

func adminAccountsJSON(accounts []models.Account) []fiber.Map {
	out := make([]fiber.Map, 0, len(accounts))
	for i := range accounts {
		out = append(out, adminAccountJSON(&accounts[i]))
	}
	return out
}

func adminAccountJSON(a *models.Account) fiber.Map {
	return fiber.Map{
		"id":                 a.ID,
		"email":              a.Email,
		"name":               a.Name,
		"role":               a.Role,
		"tier":               a.EntitlementTier(),
		"referral_code":      a.ReferralCode,
		"stripe_customer_id": a.StripeCustomerID,
		"last_purchase_at":   formatTimePtr(a.LastPurchaseAt),
		"created_at":         a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
