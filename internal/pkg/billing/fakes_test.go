package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

type fakeRepo struct {
	mu          sync.Mutex
	accounts    map[uint]*models.Account
	events      map[string]*models.WebhookEvent
	referrals   []models.ReferralRecord
	tierUpdates int
	nextEventID uint
}

func newFakeRepo(accounts ...*models.Account) *fakeRepo {
	r := &fakeRepo{
		accounts: map[uint]*models.Account{},
		events:   map[string]*models.WebhookEvent{},
	}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeRepo) GetAccountByID(id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) GetAccountByReferralCode(code string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ReferralCode == code {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UpdateAccountTier(id uint, tier entitlements.Tier, purchasedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Tier = tier
	a.LastPurchaseAt = &purchasedAt
	r.tierUpdates++
	return nil
}

func (r *fakeRepo) SetStripeCustomerID(accountID uint, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.StripeCustomerID = customerID
	return nil
}

func (r *fakeRepo) CreateReferralIfNotExists(record *models.ReferralRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.referrals {
		if existing.StripeEventID == record.StripeEventID {
			return false, nil
		}
	}
	r.referrals = append(r.referrals, *record)
	return true, nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.events[event.ProviderEventID]; ok {
		cp := *stored
		return false, &cp, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	stored := *event
	r.events[event.ProviderEventID] = &stored
	cp := stored
	return true, &cp, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return errors.New("event not found")
}

func (r *fakeRepo) account(id uint) models.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.accounts[id]
}

type fakeProvider struct {
	customersCreated int
	sessions         []SessionParams
	lineItems        map[string][]string
	err              error
}

func (p *fakeProvider) CreateCustomer(_ context.Context, _ uint, _, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.customersCreated++
	return "cus_test_1", nil
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, params SessionParams) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.sessions = append(p.sessions, params)
	return "https://checkout.stripe.com/c/pay/cs_test_1", nil
}

func (p *fakeProvider) ListLineItemPrices(_ context.Context, sessionID string) ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.lineItems[sessionID], nil
}
