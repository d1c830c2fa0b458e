// Package repositorytest provides in-memory repositories for handler and
// middleware tests. They mirror the GORM repositories closely enough for
// request-level tests: soft deletes hide rows, lookups are account scoped
// and missing rows return gorm.ErrRecordNotFound.
package repositorytest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/refcode"
)

// New returns a fresh set of in-memory repositories.
func New() (*repository.Repositories, *Store) {
	s := &Store{
		accounts:    map[uint]*models.Account{},
		generations: map[uint]*models.GenerationRecord{},
		assets:      map[uint]*models.SavedAsset{},
	}
	return &repository.Repositories{
		Account:    &Accounts{s},
		Generation: &Generations{s},
		Asset:      &Assets{s},
		Referral:   &Referrals{s},
	}, s
}

// Store holds the rows shared by the in-memory repositories.
type Store struct {
	mu          sync.Mutex
	nextID      uint
	accounts    map[uint]*models.Account
	generations map[uint]*models.GenerationRecord
	assets      map[uint]*models.SavedAsset
	referrals   []models.ReferralRecord
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// AddReferral seeds a referral record.
func (s *Store) AddReferral(rec models.ReferralRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == 0 {
		rec.ID = s.id()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.referrals = append(s.referrals, rec)
}

// Generations returns a copy of every stored generation record.
func (s *Store) Generations() []models.GenerationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GenerationRecord, 0, len(s.generations))
	for _, g := range s.generations {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Accounts struct{ s *Store }

func (r *Accounts) Create(account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.FirebaseUID == account.FirebaseUID || (account.ReferralCode != "" && a.ReferralCode == account.ReferralCode) {
			return gorm.ErrDuplicatedKey
		}
	}
	account.ID = r.s.id()
	now := time.Now()
	account.CreatedAt, account.UpdatedAt = now, now
	cp := *account
	r.s.accounts[account.ID] = &cp
	return nil
}

func (r *Accounts) find(match func(*models.Account) bool) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if !a.DeletedAt.Valid && match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Accounts) GetByID(id uint) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.ID == id })
}

func (r *Accounts) GetByFirebaseUID(uid string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.FirebaseUID == uid })
}

func (r *Accounts) GetDeletedByFirebaseUID(uid string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.DeletedAt.Valid && a.FirebaseUID == uid {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Accounts) GetByReferralCode(code string) (*models.Account, error) {
	code = refcode.Normalize(code)
	if code == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return r.find(func(a *models.Account) bool { return a.ReferralCode == code })
}

func (r *Accounts) update(id uint, fn func(*models.Account)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok || a.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	fn(a)
	a.UpdatedAt = time.Now()
	return nil
}

func (r *Accounts) Update(account *models.Account) error {
	return r.update(account.ID, func(a *models.Account) { *a = *account })
}

func (r *Accounts) UpdateTier(id uint, tier entitlements.Tier, purchasedAt *time.Time) error {
	return r.update(id, func(a *models.Account) {
		a.Tier = tier
		if purchasedAt != nil {
			t := *purchasedAt
			a.LastPurchaseAt = &t
		}
	})
}

func (r *Accounts) SetStripeCustomerID(id uint, customerID string) error {
	return r.update(id, func(a *models.Account) { a.StripeCustomerID = customerID })
}

func (r *Accounts) RevokeSessions(id uint, at time.Time) error {
	return r.update(id, func(a *models.Account) { a.SessionsRevokedAt = &at })
}

func (r *Accounts) Delete(id uint) error {
	return r.update(id, func(a *models.Account) {
		a.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	})
}

func (r *Accounts) live() []models.Account {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Account, 0, len(r.s.accounts))
	for _, a := range r.s.accounts {
		if !a.DeletedAt.Valid {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *Accounts) List(offset, limit int) ([]models.Account, error) {
	return page(r.live(), offset, limit), nil
}

func (r *Accounts) Count() (int64, error) {
	return int64(len(r.live())), nil
}

func (r *Accounts) Search(query string) ([]models.Account, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Account
	for _, a := range r.live() {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Email), q) {
			out = append(out, a)
		}
	}
	return out, nil
}

type Generations struct{ s *Store }

func (r *Generations) Create(record *models.GenerationRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record.ID = r.s.id()
	if record.UUID == "" {
		record.UUID = uuid.NewString()
	}
	record.CreatedAt = time.Now()
	cp := *record
	r.s.generations[record.ID] = &cp
	return nil
}

func (r *Generations) GetByUUID(accountID uint, id string) (*models.GenerationRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.generations {
		if g.AccountID == accountID && g.UUID == id {
			cp := *g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *Generations) byAccount(accountID uint) []models.GenerationRecord {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.GenerationRecord
	for _, g := range r.s.generations {
		if g.AccountID == accountID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *Generations) ListByAccount(accountID uint, offset, limit int) ([]models.GenerationRecord, error) {
	return page(r.byAccount(accountID), offset, limit), nil
}

func (r *Generations) CountByAccount(accountID uint) (int64, error) {
	return int64(len(r.byAccount(accountID))), nil
}

func (r *Generations) MarkExported(id uint, key string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.generations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	g.Exported = true
	g.ExportedAt = &at
	g.ExportKey = key
	return nil
}

type Assets struct{ s *Store }

func (r *Assets) Create(asset *models.SavedAsset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	asset.ID = r.s.id()
	asset.CreatedAt = time.Now()
	cp := *asset
	r.s.assets[asset.ID] = &cp
	return nil
}

func (r *Assets) GetByID(accountID, id uint) (*models.SavedAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok || a.AccountID != accountID || a.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *Assets) ListByAccount(accountID uint, assetType string) ([]models.SavedAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.SavedAsset{}
	for _, a := range r.s.assets {
		if a.AccountID == accountID && !a.DeletedAt.Valid && (assetType == "" || a.Type == assetType) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Assets) Delete(accountID, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok || a.AccountID != accountID || a.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	a.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

type Referrals struct{ s *Store }

func (r *Referrals) all() []models.ReferralRecord {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]models.ReferralRecord(nil), r.s.referrals...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *Referrals) List(offset, limit int) ([]models.ReferralRecord, error) {
	return page(r.all(), offset, limit), nil
}

func (r *Referrals) ListByReferrer(referrerID uint) ([]models.ReferralRecord, error) {
	var out []models.ReferralRecord
	for _, rec := range r.all() {
		if rec.ReferrerID == referrerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *Referrals) Count() (int64, error) {
	return int64(len(r.all())), nil
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
