package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

func newTestCheckout(repo *fakeRepo, provider Provider) *CheckoutService {
	return NewCheckoutService(repo, provider, testStripeConfig(), "https://launchpad.test/", nil)
}

func sopRequest() CheckoutRequest {
	return CheckoutRequest{
		PriceID:   "price_sop",
		UserID:    "7",
		UserEmail: "buyer@example.com",
		Tier:      "sop",
	}
}

func TestCreateSessionNotConfigured(t *testing.T) {
	repo := newFakeRepo(buyer())
	svc := NewCheckoutService(repo, &fakeProvider{}, config.StripeConfig{}, "https://launchpad.test", nil)

	_, err := svc.CreateSession(context.Background(), buyer(), sopRequest())
	require.Error(t, err)
	assert.Equal(t, apperror.KindPaymentConfig, apperror.KindOf(err))

	svc = NewCheckoutService(repo, nil, testStripeConfig(), "https://launchpad.test", nil)
	_, err = svc.CreateSession(context.Background(), buyer(), sopRequest())
	assert.Equal(t, apperror.KindPaymentConfig, apperror.KindOf(err))
}

func TestCreateSessionRequiresAccount(t *testing.T) {
	svc := newTestCheckout(newFakeRepo(), &fakeProvider{})
	_, err := svc.CreateSession(context.Background(), nil, sopRequest())
	assert.Equal(t, apperror.KindAuthRequired, apperror.KindOf(err))
}

func TestCreateSessionRejectsForeignUser(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestCheckout(newFakeRepo(buyer()), provider)
	req := sopRequest()
	req.UserID = "8"

	_, err := svc.CreateSession(context.Background(), buyer(), req)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.Equal(t, 0, provider.customersCreated)
	assert.Empty(t, provider.sessions)
}

func TestCreateSessionAcceptsFirebaseUID(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestCheckout(newFakeRepo(buyer()), provider)
	req := sopRequest()
	req.UserID = "uid-7"

	_, err := svc.CreateSession(context.Background(), buyer(), req)
	require.NoError(t, err)
}

func TestCreateSessionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckoutRequest)
	}{
		{name: "missing price", mutate: func(r *CheckoutRequest) { r.PriceID = "" }},
		{name: "invalid tier", mutate: func(r *CheckoutRequest) { r.Tier = "platinum" }},
		{name: "free tier", mutate: func(r *CheckoutRequest) { r.Tier = "free" }},
		{name: "unknown price", mutate: func(r *CheckoutRequest) { r.PriceID = "price_other" }},
		{name: "price tier mismatch", mutate: func(r *CheckoutRequest) { r.PriceID = "price_lp" }},
		{name: "order bump alone", mutate: func(r *CheckoutRequest) { r.PriceID = "price_bump" }},
		{name: "bad email", mutate: func(r *CheckoutRequest) { r.UserEmail = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			svc := newTestCheckout(newFakeRepo(buyer()), provider)
			req := sopRequest()
			tt.mutate(&req)

			_, err := svc.CreateSession(context.Background(), buyer(), req)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Empty(t, provider.sessions)
		})
	}
}

func TestCreateSessionCreatesCustomerOnce(t *testing.T) {
	repo := newFakeRepo(buyer())
	provider := &fakeProvider{}
	svc := newTestCheckout(repo, provider)

	for i := 0; i < 2; i++ {
		account, err := repo.GetAccountByID(7)
		require.NoError(t, err)
		url, err := svc.CreateSession(context.Background(), account, sopRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", url)
	}

	assert.Equal(t, 1, provider.customersCreated)
	assert.Equal(t, "cus_test_1", repo.account(7).StripeCustomerID)
	require.Len(t, provider.sessions, 2)
	assert.Equal(t, "cus_test_1", provider.sessions[1].CustomerID)
}

func TestCreateSessionOrderBumpOnlyWithSOP(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestCheckout(newFakeRepo(buyer()), provider)

	req := sopRequest()
	req.IncludeOrderBump = true
	_, err := svc.CreateSession(context.Background(), buyer(), req)
	require.NoError(t, err)

	req = CheckoutRequest{PriceID: "price_caio", UserID: "7", Tier: "caio", IncludeOrderBump: true}
	_, err = svc.CreateSession(context.Background(), buyer(), req)
	require.NoError(t, err)

	require.Len(t, provider.sessions, 2)
	assert.Equal(t, []string{"price_sop", "price_bump"}, provider.sessions[0].PriceIDs)
	assert.Equal(t, []string{"price_caio"}, provider.sessions[1].PriceIDs)
}

func TestCreateSessionMetadata(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestCheckout(newFakeRepo(buyer()), provider)
	req := CheckoutRequest{PriceID: "price_lp", UserID: "7", Tier: "Launchpad", ReferralCode: "friend3"}

	_, err := svc.CreateSession(context.Background(), buyer(), req)
	require.NoError(t, err)

	require.Len(t, provider.sessions, 1)
	s := provider.sessions[0]
	assert.Equal(t, map[string]string{
		MetaUserID:       "7",
		MetaTier:         string(entitlements.TierLaunchpad),
		MetaReferralCode: "FRIEND3",
	}, s.Metadata)
	assert.Equal(t, "7", s.ClientReferenceID)
	assert.Equal(t, "https://launchpad.test/checkout/success?session_id={CHECKOUT_SESSION_ID}", s.SuccessURL)
	assert.Equal(t, "https://launchpad.test/checkout/cancel", s.CancelURL)
}

func TestCreateSessionProviderErrorIsGeneric(t *testing.T) {
	provider := &fakeProvider{err: errors.New("No such price: 'price_sop'")}
	svc := newTestCheckout(newFakeRepo(buyer()), provider)

	_, err := svc.CreateSession(context.Background(), &models.Account{ID: 7, StripeCustomerID: "cus_existing"}, sopRequest())
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.NotContains(t, apperror.PublicMessage(err), "price_sop")
}
