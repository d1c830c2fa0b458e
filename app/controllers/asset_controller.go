package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

type AssetController struct {
	assets repository.AssetRepository
}

func NewAssetController(assets repository.AssetRepository) *AssetController {
	return &AssetController{assets: assets}
}

type createAssetRequest struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// HandleListAssets supports an optional ?type= filter.
func (ac *AssetController) HandleListAssets(c *fiber.Ctx) error {
	assetType := strings.ToLower(strings.TrimSpace(c.Query("type")))
	switch assetType {
	case "", models.ASSET_TYPE_NICHE, models.ASSET_TYPE_CONTENT, models.ASSET_TYPE_CONTRACT, models.ASSET_TYPE_PROMPT:
	default:
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "type must be one of: niche, content, contract, prompt"))
	}

	assets, err := ac.assets.ListByAccount(usercontext.GetAccountID(c), assetType)
	if err != nil {
		log.Errorf("[Assets] Failed to list assets: %v", err)
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not load assets", err))
	}
	return c.JSON(fiber.Map{"items": assets})
}

func (ac *AssetController) HandleCreateAsset(c *fiber.Ctx) error {
	var req createAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "request body must be a JSON object"))
	}

	asset := &models.SavedAsset{
		AccountID: usercontext.GetAccountID(c),
		Type:      strings.ToLower(strings.TrimSpace(req.Type)),
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
	}
	if err := asset.Validate(); err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindValidation, "type, title and content are required; type must be one of: niche, content, contract, prompt", err))
	}
	if err := ac.assets.Create(asset); err != nil {
		log.Errorf("[Assets] Failed to save asset: %v", err)
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not save asset", err))
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (ac *AssetController) HandleGetAsset(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "asset not found"))
	}
	asset, err := ac.assets.GetByID(usercontext.GetAccountID(c), id)
	if err != nil {
		return ac.respondLookupError(c, err)
	}
	return c.JSON(asset)
}

func (ac *AssetController) HandleDeleteAsset(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "asset not found"))
	}
	if err := ac.assets.Delete(usercontext.GetAccountID(c), id); err != nil {
		return ac.respondLookupError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (ac *AssetController) respondLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "asset not found"))
	}
	log.Errorf("[Assets] Lookup failed: %v", err)
	return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not load asset", err))
}
