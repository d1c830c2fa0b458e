// Package generation gates, executes, meters and records AI tool calls.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/LaunchPad/app/models"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/apperror"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/metrics"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/ratelimit"
)

// RecordStore persists generation history.
type RecordStore interface {
	Create(record *models.GenerationRecord) error
}

// Output is a successful generation.
type Output struct {
	Result Result
	Record *models.GenerationRecord
}

type Gateway struct {
	completer Completer
	usage     ratelimit.Store
	records   RecordStore
	timeout   time.Duration
	metrics   *metrics.Metrics
	validate  *validator.Validate
	now       func() time.Time
}

func NewGateway(completer Completer, usage ratelimit.Store, records RecordStore, timeout time.Duration, m *metrics.Metrics) *Gateway {
	return &Gateway{
		completer: completer,
		usage:     usage,
		records:   records,
		timeout:   timeout,
		metrics:   m,
		validate:  newValidator(),
		now:       time.Now,
	}
}

// Generate runs one tool call for account. Preconditions are checked in
// order (authentication, tier, daily cap, payload) and the first failure is
// returned. The usage counter and history record are only written after
// the model produced a parseable result.
func (g *Gateway) Generate(ctx context.Context, account *models.Account, tool entitlements.Tool, payload []byte) (*Output, error) {
	if account == nil {
		return nil, apperror.New(apperror.KindAuthRequired, "login required")
	}
	ts, ok := settings[tool]
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, "unknown tool")
	}

	if !entitlements.HasTool(account, tool) {
		g.metrics.Generation(string(tool), "forbidden", 0)
		return nil, apperror.New(apperror.KindForbidden,
			fmt.Sprintf("the %s tool requires the %s tier", tool, entitlements.ToolTier(tool)))
	}

	day := ratelimit.Day(g.now())
	limit := ratelimit.DailyCap(tool)
	used, err := g.usage.Count(ctx, account.ID, tool, day)
	if err != nil {
		log.Errorf("[Generation] Failed to read usage for account %d: %v", account.ID, err)
		return nil, apperror.Wrap(apperror.KindInternal, "could not check your usage, please try again", err)
	}
	if used >= limit {
		g.metrics.Generation(string(tool), "rate_limited", 0)
		return nil, apperror.New(apperror.KindRateLimited,
			fmt.Sprintf("daily limit of %d %s generations reached, try again tomorrow", limit, tool))
	}

	input, err := g.decodeInput(tool, payload)
	if err != nil {
		g.metrics.Generation(string(tool), "invalid", 0)
		return nil, err
	}
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "invalid request", err)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.completer.Complete(callCtx, CompletionRequest{
		System:      ts.System,
		User:        string(inputJSON),
		MaxTokens:   ts.MaxTokens,
		Temperature: ts.Temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, g.upstreamError(account.ID, tool, err, elapsed)
	}

	result, err := ParseResult(tool, raw, g.validate)
	if err != nil {
		log.Errorf("[Generation] Unparseable %s output for account %d: %v; raw=%q", tool, account.ID, err, raw)
		g.metrics.Generation(string(tool), "parse_error", elapsed)
		return nil, apperror.Wrap(apperror.KindGenerationFailed, "generation failed, please try again", err)
	}

	if _, err := g.usage.Increment(ctx, account.ID, tool, day); err != nil {
		log.Errorf("[Generation] Failed to increment usage for account %d: %v", account.ID, err)
	}
	record := &models.GenerationRecord{
		AccountID:    account.ID,
		ToolType:     tool,
		InputPayload: string(inputJSON),
		OutputText:   raw,
	}
	if err := g.records.Create(record); err != nil {
		log.Errorf("[Generation] Failed to store %s record for account %d: %v", tool, account.ID, err)
	}

	g.metrics.Generation(string(tool), "ok", elapsed)
	return &Output{Result: result, Record: record}, nil
}

func (g *Gateway) decodeInput(tool entitlements.Tool, payload []byte) (any, error) {
	input, err := newInput(tool)
	if err != nil {
		return nil, apperror.New(apperror.KindNotFound, "unknown tool")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(input); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "request body must be a JSON object", err)
	}
	input.normalize()
	if err := g.validate.Struct(input); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, validationMessage(err), err)
	}
	return input, nil
}

func (g *Gateway) upstreamError(accountID uint, tool entitlements.Tool, err error, elapsed time.Duration) error {
	switch {
	case errors.Is(err, ErrNotConfigured):
		log.Error("[Generation] LLM_API_KEY is not set")
		g.metrics.Generation(string(tool), "not_configured", 0)
		return apperror.Wrap(apperror.KindGenerationFailed, "AI generation is not configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		log.Warnf("[Generation] %s call for account %d timed out after %s", tool, accountID, elapsed)
		g.metrics.Generation(string(tool), "timeout", elapsed)
		return apperror.Wrap(apperror.KindGenerationFailed, "generation timed out, please try again", err)
	default:
		log.Errorf("[Generation] %s call for account %d failed: %v", tool, accountID, err)
		g.metrics.Generation(string(tool), "upstream_error", elapsed)
		return apperror.Wrap(apperror.KindGenerationFailed, "generation failed, please try again", err)
	}
}
