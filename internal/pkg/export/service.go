package export

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
)

// Uploader stores one generation record and returns its object key.
type Uploader interface {
	Upload(ctx context.Context, record *models.GenerationRecord) (string, error)
}

type Service struct {
	records  repository.GenerationRepository
	uploader Uploader
	now      func() time.Time
}

// NewService wires the exporter. uploader may be nil when export is disabled.
func NewService(records repository.GenerationRepository, uploader Uploader) *Service {
	return &Service{records: records, uploader: uploader, now: time.Now}
}

// ExportGeneration uploads the account's record and flags it exported.
// Exporting twice overwrites the same object.
func (s *Service) ExportGeneration(ctx context.Context, accountID uint, uuid string) (*models.GenerationRecord, error) {
	if s.uploader == nil {
		return nil, apperror.Wrap(apperror.KindInternal, "export is not configured", ErrDisabled)
	}

	record, err := s.records.GetByUUID(accountID, uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "generation not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, "could not load generation", err)
	}

	key, err := s.uploader.Upload(ctx, record)
	if err != nil {
		log.Errorf("[Export] Upload of generation %s failed: %v", record.UUID, err)
		return nil, apperror.Wrap(apperror.KindInternal, "export failed, please try again", err)
	}

	at := s.now()
	if err := s.records.MarkExported(record.ID, key, at); err != nil {
		log.Errorf("[Export] Failed to flag generation %s as exported: %v", record.UUID, err)
		return nil, apperror.Wrap(apperror.KindInternal, "export failed, please try again", err)
	}
	record.Exported = true
	record.ExportedAt = &at
	record.ExportKey = key
	return record, nil
}
