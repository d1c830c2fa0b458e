package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/app/repository/repositorytest"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/auth"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/session"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

type fakeVerifier map[string]*auth.Claims

func (f fakeVerifier) Verify(token string) (*auth.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

type testApp struct {
	app   *fiber.App
	repos *repository.Repositories
}

func newTestApp(t *testing.T, tokens auth.TokenVerifier) *testApp {
	t.Helper()
	repos, _ := repositorytest.New()
	store := session.NewStore(nil, time.Hour, false)
	authn := NewAuthenticator(store, repos.Account, tokens)

	app := fiber.New()
	app.Use(authn.UserContext)
	app.Post("/login/:id", func(c *fiber.Ctx) error {
		id, _ := strconv.Atoi(c.Params("id"))
		if err := session.Login(store, c, uint(id), time.Now()); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/me", RequireAPISessionAuth, func(c *fiber.Ctx) error {
		return c.SendString(strconv.Itoa(int(usercontext.GetAccountID(c))) + ":" + string(usercontext.Account(c).Tier))
	})
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return &testApp{app: app, repos: repos}
}

func (ta *testApp) createAccount(t *testing.T, uid, role string) *models.Account {
	t.Helper()
	a, err := models.NewAccount(uid, uid+"@example.com", uid)
	require.NoError(t, err)
	a.Role = role
	a.Tier = entitlements.TierCAIO
	require.NoError(t, ta.repos.Account.Create(a))
	return a
}

func (ta *testApp) login(t *testing.T, id uint) *http.Cookie {
	t.Helper()
	resp, err := ta.app.Test(httptest.NewRequest(http.MethodPost, "/login/"+strconv.Itoa(int(id)), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (ta *testApp) get(t *testing.T, path string, cookie *http.Cookie, header ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireAPISessionAuthAnonymous(t *testing.T) {
	ta := newTestApp(t, nil)
	resp := ta.get(t, "/me", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionCookieAuthenticates(t *testing.T) {
	ta := newTestApp(t, nil)
	acct := ta.createAccount(t, "u1", models.ROLE_USER)
	cookie := ta.login(t, acct.ID)

	resp := ta.get(t, "/me", cookie)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ta.get(t, "/admin", cookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminAllowed(t *testing.T) {
	ta := newTestApp(t, nil)
	admin := ta.createAccount(t, "boss", models.ROLE_ADMIN)
	resp := ta.get(t, "/admin", ta.login(t, admin.ID))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRevokedSessionIsRejected(t *testing.T) {
	ta := newTestApp(t, nil)
	acct := ta.createAccount(t, "u2", models.ROLE_USER)
	cookie := ta.login(t, acct.ID)

	require.NoError(t, ta.repos.Account.RevokeSessions(acct.ID, time.Now().Add(time.Second)))
	resp := ta.get(t, "/me", cookie)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDeletedAccountSessionIsRejected(t *testing.T) {
	ta := newTestApp(t, nil)
	acct := ta.createAccount(t, "u3", models.ROLE_USER)
	cookie := ta.login(t, acct.ID)

	require.NoError(t, ta.repos.Account.Delete(acct.ID))
	resp := ta.get(t, "/me", cookie)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDeletedAccountBearerIsRejected(t *testing.T) {
	tokens := fakeVerifier{"tok": {UID: "gone", Email: "gone@example.com", IssuedAt: time.Now()}}
	ta := newTestApp(t, tokens)
	acct := ta.createAccount(t, "gone", models.ROLE_USER)
	require.NoError(t, ta.repos.Account.Delete(acct.ID))

	resp := ta.get(t, "/me", nil, fiber.HeaderAuthorization, "Bearer tok")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "auth_invalid", body["code"])

	// No replacement account was provisioned.
	n, _ := ta.repos.Account.Count()
	assert.EqualValues(t, 0, n)
}

func TestBearerTokenProvisionsAccount(t *testing.T) {
	tokens := fakeVerifier{"good": {UID: "fb-new", Email: "New@Example.com", Name: "Newbie", IssuedAt: time.Now()}}
	ta := newTestApp(t, tokens)

	resp := ta.get(t, "/me", nil, fiber.HeaderAuthorization, "Bearer good")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	acct, err := ta.repos.Account.GetByFirebaseUID("fb-new")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", acct.Email)
	assert.Equal(t, entitlements.TierFree, acct.Tier)
	assert.NotEmpty(t, acct.ReferralCode)

	// Second request reuses the account.
	resp = ta.get(t, "/me", nil, fiber.HeaderAuthorization, "Bearer good")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	n, _ := ta.repos.Account.Count()
	assert.EqualValues(t, 1, n)
}

func TestBearerTokenInvalid(t *testing.T) {
	ta := newTestApp(t, fakeVerifier{})
	resp := ta.get(t, "/me", nil, fiber.HeaderAuthorization, "Bearer nope")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		tok, ok := bearerToken(c)
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.SendString(tok)
	})
	for header, want := range map[string]int{
		"Bearer abc": fiber.StatusOK,
		"bearer abc": fiber.StatusOK,
		"Bearer":     fiber.StatusNoContent,
		"Token abc":  fiber.StatusNoContent,
		"":           fiber.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(fiber.HeaderAuthorization, header)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, header)
	}
}
