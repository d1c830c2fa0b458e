package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/ratelimit"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

// AccountController serves the caller's profile and the course catalog.
type AccountController struct {
	usage     ratelimit.Store
	referrals repository.ReferralRepository
	now       func() time.Time
}

func NewAccountController(usage ratelimit.Store, referrals repository.ReferralRepository) *AccountController {
	return &AccountController{usage: usage, referrals: referrals, now: time.Now}
}

// HandleMe returns the account, its tier and today's tool usage.
func (ac *AccountController) HandleMe(c *fiber.Ctx) error {
	account := usercontext.Account(c)
	if account == nil {
		return apperror.Respond(c, apperror.New(apperror.KindAuthRequired, "login required"))
	}

	usage, err := ratelimit.Usage(c.UserContext(), ac.usage, account.ID, ac.now())
	if err != nil {
		log.Errorf("[Account] Failed to load usage for account %d: %v", account.ID, err)
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not load usage", err))
	}

	var earned, pending int64
	referrals, err := ac.referrals.ListByReferrer(account.ID)
	if err != nil {
		log.Warnf("[Account] Failed to load referrals for account %d: %v", account.ID, err)
	}
	for _, r := range referrals {
		earned += r.Commission
		if r.Status == models.REFERRAL_STATUS_PENDING {
			pending += r.Commission
		}
	}

	tools := make([]fiber.Map, 0, len(usage))
	for _, u := range usage {
		tools = append(tools, fiber.Map{
			"tool":      u.Tool,
			"used":      u.Used,
			"limit":     u.Limit,
			"remaining": u.Remaining,
			"unlocked":  entitlements.HasTool(account, u.Tool),
		})
	}

	return c.JSON(fiber.Map{
		"id":               account.ID,
		"email":            account.Email,
		"name":             account.Name,
		"avatar_url":       account.AvatarURL(200),
		"tier":             account.EntitlementTier(),
		"is_admin":         account.IsAdmin(),
		"referral_code":    account.ReferralCode,
		"last_purchase_at": formatTimePtr(account.LastPurchaseAt),
		"created_at":       account.CreatedAt.UTC().Format(time.RFC3339),
		"usage":            tools,
		"referrals": fiber.Map{
			"count":              len(referrals),
			"commission_total":   earned,
			"commission_pending": pending,
		},
	})
}

// HandleCourses lists the catalog with the caller's unlock state.
func (ac *AccountController) HandleCourses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"courses": entitlements.CoursesFor(usercontext.Account(c))})
}

// HandleCourse returns one course, or 403 when the caller's tier is too low.
func (ac *AccountController) HandleCourse(c *fiber.Ctx) error {
	course, ok := entitlements.CourseBySlug(c.Params("slug"))
	if !ok {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "course not found"))
	}
	if !entitlements.HasAccess(usercontext.Account(c), course.RequiredTier) {
		return apperror.Respond(c, apperror.New(apperror.KindForbidden, "this course requires the "+string(course.RequiredTier)+" tier"))
	}
	return c.JSON(entitlements.CourseAccess{Course: course, Unlocked: true})
}
