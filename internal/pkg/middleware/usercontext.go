package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/auth"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/session"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

// Authenticator resolves the caller of a request from the session cookie
// or, for API clients, from a Firebase ID token in the Authorization header.
type Authenticator struct {
	store    *fibersession.Store
	accounts repository.AccountRepository
	tokens   auth.TokenVerifier
}

// NewAuthenticator wires the session store and account lookup. tokens may
// be nil, which disables bearer authentication.
func NewAuthenticator(store *fibersession.Store, accounts repository.AccountRepository, tokens auth.TokenVerifier) *Authenticator {
	return &Authenticator{store: store, accounts: accounts, tokens: tokens}
}

// UserContext sets up the user context for every request. It never
// rejects a request on its own except for an invalid bearer token;
// the Require* handlers enforce access.
func (a *Authenticator) UserContext(c *fiber.Ctx) error {
	if token, ok := bearerToken(c); ok && a.tokens != nil {
		account, err := a.fromBearer(token)
		if err != nil {
			return apperror.Respond(c, err)
		}
		usercontext.Set(c, account)
		return c.Next()
	}

	usercontext.Set(c, a.fromSession(c))
	return c.Next()
}

func (a *Authenticator) fromSession(c *fiber.Ctx) *models.Account {
	accountID, issuedAt, err := session.Read(a.store, c)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			log.Warnf("[Auth] Failed to read session: %v", err)
		}
		return nil
	}

	account, err := a.accounts.GetByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infof("[Auth] Session for missing account %d dropped", accountID)
			_ = session.Logout(a.store, c)
		} else {
			log.Errorf("[Auth] Failed to load account %d: %v", accountID, err)
		}
		return nil
	}
	if account.SessionRevokedSince(issuedAt) {
		_ = session.Logout(a.store, c)
		return nil
	}
	return account
}

func (a *Authenticator) fromBearer(token string) (*models.Account, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		log.Debugf("[Auth] Rejected bearer token: %v", err)
		return nil, apperror.Wrap(apperror.KindAuthInvalid, "invalid or expired token", err)
	}
	account, err := auth.ProvisionAccount(a.accounts, claims)
	if errors.Is(err, auth.ErrAccountDeleted) {
		return nil, apperror.Wrap(apperror.KindAuthInvalid, "this account has been deleted", err)
	}
	if err != nil {
		log.Errorf("[Auth] Failed to provision account: %v", err)
		return nil, apperror.Wrap(apperror.KindInternal, "could not load your account", err)
	}
	if account.SessionRevokedSince(claims.IssuedAt) {
		return nil, apperror.New(apperror.KindAuthInvalid, "token has been revoked, please sign in again")
	}
	return account, nil
}
