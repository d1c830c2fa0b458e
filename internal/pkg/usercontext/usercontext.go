package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// UserContext represents the authenticated caller of a request
type UserContext struct {
	AccountID  uint              `json:"account_id"`
	Email      string            `json:"email"`
	IsLoggedIn bool              `json:"is_logged_in"`
	IsAdmin    bool              `json:"is_admin"`
	Tier       entitlements.Tier `json:"tier"`
}

// Set attaches account to the request. A nil account marks the request anonymous.
func Set(c *fiber.Ctx, account *models.Account) {
	if account == nil {
		c.Locals(KeyUserContext, UserContext{Tier: entitlements.TierFree})
		c.Locals(KeyAccount, (*models.Account)(nil))
		c.Locals(KeyFromProtected, false)
		return
	}
	c.Locals(KeyUserContext, UserContext{
		AccountID:  account.ID,
		Email:      account.Email,
		IsLoggedIn: true,
		IsAdmin:    account.IsAdmin(),
		Tier:       account.EntitlementTier(),
	})
	c.Locals(KeyAccount, account)
	c.Locals(KeyFromProtected, true)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{Tier: entitlements.TierFree}
}

// Account returns the authenticated account, or nil.
func Account(c *fiber.Ctx) *models.Account {
	a, _ := c.Locals(KeyAccount).(*models.Account)
	return a
}

func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetAccountID returns the current account ID, or 0 if not logged in
func GetAccountID(c *fiber.Ctx) uint {
	return GetUserContext(c).AccountID
}
