package controllers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/app/repository"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/generation"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/usercontext"
)

// Generator runs one AI tool call.
type Generator interface {
	Generate(ctx context.Context, account *models.Account, tool entitlements.Tool, payload []byte) (*generation.Output, error)
}

// GenerationExporter uploads a stored generation to object storage.
type GenerationExporter interface {
	ExportGeneration(ctx context.Context, accountID uint, uuid string) (*models.GenerationRecord, error)
}

type GenerationController struct {
	generator Generator
	records   repository.GenerationRepository
	exporter  GenerationExporter
}

func NewGenerationController(generator Generator, records repository.GenerationRepository, exporter GenerationExporter) *GenerationController {
	return &GenerationController{generator: generator, records: records, exporter: exporter}
}

// HandleGenerate serves POST /api/generate/:tool.
func (gc *GenerationController) HandleGenerate(c *fiber.Ctx) error {
	tool, ok := entitlements.ParseTool(c.Params("tool"))
	if !ok {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "unknown tool"))
	}

	out, err := gc.generator.Generate(c.UserContext(), usercontext.Account(c), tool, c.Body())
	if err != nil {
		return apperror.Respond(c, err)
	}

	resp := fiber.Map{
		"tool":   tool,
		"result": out.Result,
	}
	if out.Record != nil {
		resp["uuid"] = out.Record.UUID
	}
	return c.JSON(resp)
}

// HandleListGenerations returns the caller's history, newest first.
func (gc *GenerationController) HandleListGenerations(c *fiber.Ctx) error {
	accountID := usercontext.GetAccountID(c)
	page, perPage, offset := pagination(c)

	records, err := gc.records.ListByAccount(accountID, offset, perPage)
	if err != nil {
		log.Errorf("[Generation] Failed to list history for account %d: %v", accountID, err)
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not load history", err))
	}
	total, err := gc.records.CountByAccount(accountID)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "could not load history", err))
	}

	items := make([]fiber.Map, 0, len(records))
	for i := range records {
		items = append(items, generationJSON(&records[i]))
	}
	return c.JSON(fiber.Map{
		"items":    items,
		"page":     page,
		"per_page": perPage,
		"total":    total,
	})
}

// HandleExportGeneration serves POST /api/generations/:uuid/export.
func (gc *GenerationController) HandleExportGeneration(c *fiber.Ctx) error {
	uuid := strings.TrimSpace(c.Params("uuid"))
	if uuid == "" {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "generation not found"))
	}
	record, err := gc.exporter.ExportGeneration(c.UserContext(), usercontext.GetAccountID(c), uuid)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(generationJSON(record))
}

func generationJSON(r *models.GenerationRecord) fiber.Map {
	var input interface{}
	if err := json.Unmarshal([]byte(r.InputPayload), &input); err != nil {
		input = r.InputPayload
	}
	return fiber.Map{
		"uuid":        r.UUID,
		"tool":        r.ToolType,
		"input":       input,
		"output":      r.OutputText,
		"exported":    r.Exported,
		"exported_at": formatTimePtr(r.ExportedAt),
		"export_key":  r.ExportKey,
		"created_at":  formatTimePtr(&r.CreatedAt),
	}
}
