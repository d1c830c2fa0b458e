package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
)

// ProvisionAccount returns the local account for a verified identity,
// creating a free-tier account the first time the identity is seen.
// Email and name follow the identity provider.
func ProvisionAccount(accounts repository.AccountRepository, claims *Claims) (*models.Account, error) {
	if claims == nil || claims.UID == "" {
		return nil, ErrMissingSubject
	}

	account, err := accounts.GetByFirebaseUID(claims.UID)
	switch {
	case err == nil:
		email := strings.ToLower(strings.TrimSpace(claims.Email))
		name := strings.TrimSpace(claims.Name)
		if (email != "" && email != account.Email) || (name != "" && name != account.Name) {
			if email != "" {
				account.Email = email
			}
			if name != "" {
				account.Name = name
			}
			if err := accounts.Update(account); err != nil {
				log.Warnf("[Auth] Failed to refresh profile for account %d: %v", account.ID, err)
			}
		}
		return account, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	// A deleted account keeps its identity; it is never silently recreated.
	if deleted, err := accounts.GetDeletedByFirebaseUID(claims.UID); err == nil {
		log.Infof("[Auth] Sign-in for deleted account %d refused", deleted.ID)
		return nil, ErrAccountDeleted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account, err = models.NewAccount(claims.UID, claims.Email, claims.Name)
	if err != nil {
		return nil, fmt.Errorf("build account: %w", err)
	}
	if err := accounts.Create(account); err != nil {
		// A concurrent first login may have created the row already.
		if existing, lookupErr := accounts.GetByFirebaseUID(claims.UID); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	log.Infof("[Auth] Created account %d for new identity", account.ID)
	return account, nil
}
