package generation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// Result is the structured output of one generation. It is one of
// *NicheResult, *AuthorityResult or *DealmakerResult.
type Result interface {
	Tool() entitlements.Tool
	isResult()
}

type Niche struct {
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	TargetAudience string   `json:"targetAudience" validate:"required"`
	PainPoints     []string `json:"painPoints" validate:"required,min=1"`
	PricePoint     string   `json:"pricePoint" validate:"required"`
	WhyYou         string   `json:"whyYou" validate:"required"`
}

type NicheResult struct {
	Niches         []Niche `json:"niches" validate:"required,min=1,dive"`
	Recommendation string  `json:"recommendation" validate:"required"`
}

type EmailDraft struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type AuthorityResult struct {
	LinkedinPost    string     `json:"linkedinPost" validate:"required"`
	TwitterThread   []string   `json:"twitterThread" validate:"required,min=1"`
	EmailNewsletter EmailDraft `json:"emailNewsletter"`
	VideoScript     string     `json:"videoScript" validate:"required"`
}

type Proposal struct {
	Title            string   `json:"title" validate:"required"`
	ExecutiveSummary string   `json:"executiveSummary" validate:"required"`
	Scope            []string `json:"scope" validate:"required,min=1"`
	Deliverables     []string `json:"deliverables" validate:"required,min=1"`
	Timeline         string   `json:"timeline" validate:"required"`
	Investment       string   `json:"investment" validate:"required"`
}

type Contract struct {
	Parties         string   `json:"parties" validate:"required"`
	Terms           []string `json:"terms" validate:"required,min=1"`
	PaymentSchedule string   `json:"paymentSchedule" validate:"required"`
	Cancellation    string   `json:"cancellation" validate:"required"`
}

type DealmakerResult struct {
	Proposal      Proposal   `json:"proposal"`
	Contract      Contract   `json:"contract"`
	FollowUpEmail EmailDraft `json:"followUpEmail"`
}

func (*NicheResult) Tool() entitlements.Tool     { return entitlements.ToolNiche }
func (*AuthorityResult) Tool() entitlements.Tool { return entitlements.ToolAuthority }
func (*DealmakerResult) Tool() entitlements.Tool { return entitlements.ToolDealmaker }

func (*NicheResult) isResult()     {}
func (*AuthorityResult) isResult() {}
func (*DealmakerResult) isResult() {}

var errNoJSONObject = errors.New("no JSON object in model output")

// ExtractJSONObject returns the first balanced {...} span in text. Braces
// inside JSON string literals do not count towards nesting.
func ExtractJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if start < 0 {
			if ch == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseResult extracts and decodes the tool's result from raw model output.
func ParseResult(tool entitlements.Tool, raw string, v *validator.Validate) (Result, error) {
	span, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, errNoJSONObject
	}

	var out Result
	switch tool {
	case entitlements.ToolNiche:
		out = &NicheResult{}
	case entitlements.ToolAuthority:
		out = &AuthorityResult{}
	case entitlements.ToolDealmaker:
		out = &DealmakerResult{}
	default:
		return nil, fmt.Errorf("unknown tool %q", tool)
	}

	if err := json.Unmarshal([]byte(span), out); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", tool, err)
	}
	if err := v.Struct(out); err != nil {
		return nil, fmt.Errorf("incomplete %s result: %w", tool, err)
	}
	return out, nil
}
