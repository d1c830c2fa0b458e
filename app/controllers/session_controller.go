package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/auth"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/session"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

// SessionController exchanges Firebase ID tokens for server sessions.
type SessionController struct {
	store    *fibersession.Store
	accounts repository.AccountRepository
	tokens   auth.TokenVerifier
	now      func() time.Time
}

func NewSessionController(store *fibersession.Store, accounts repository.AccountRepository, tokens auth.TokenVerifier) *SessionController {
	return &SessionController{store: store, accounts: accounts, tokens: tokens, now: time.Now}
}

type createSessionRequest struct {
	IDToken string `json:"idToken"`
}

// HandleCreateSession verifies a fresh ID token, provisions the account on
// first sign-in and sets the HTTP-only session cookie.
func (sc *SessionController) HandleCreateSession(c *fiber.Ctx) error {
	if sc.tokens == nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "sign-in is not configured", auth.ErrNotConfigured))
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "idToken is required"))
	}

	claims, err := sc.tokens.Verify(strings.TrimSpace(req.IDToken))
	if err != nil {
		log.Debugf("[Session] Rejected ID token: %v", err)
		return apperror.Respond(c, apperror.Wrap(apperror.KindAuthInvalid, "invalid or expired token", err))
	}
	now := sc.now()
	if err := auth.CheckRecentSignIn(claims, now, auth.RecentSignInWindow); err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindAuthInvalid, "recent sign-in required", err))
	}

	account, err := auth.ProvisionAccount(sc.accounts, claims)
	if errors.Is(err, auth.ErrAccountDeleted) {
		return apperror.Respond(c, apperror.Wrap(apperror.KindAuthInvalid, "this account has been deleted", err))
	}
	if err != nil {
		log.Errorf("[Session] Failed to provision account: %v", err)
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not load your account", err))
	}

	if err := session.Login(sc.store, c, account.ID, now); err != nil {
		log.Errorf("[Session] Failed to save session for account %d: %v", account.ID, err)
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not create session", err))
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"account": fiber.Map{
			"id":    account.ID,
			"email": account.Email,
			"name":  account.Name,
			"tier":  account.EntitlementTier(),
		},
	})
}

// HandleDeleteSession clears the cookie and revokes every session of the
// caller issued so far.
func (sc *SessionController) HandleDeleteSession(c *fiber.Ctx) error {
	if accountID := usercontext.GetAccountID(c); accountID != 0 {
		if err := sc.accounts.RevokeSessions(accountID, sc.now().Truncate(time.Second)); err != nil {
			log.Errorf("[Session] Failed to revoke sessions for account %d: %v", accountID, err)
		}
	}
	if err := session.Logout(sc.store, c); err != nil {
		log.Warnf("[Session] Failed to destroy session: %v", err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}
