package generation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
)

// Tone values accepted by the authority tool.
const (
	ToneProfessional   = "professional"
	ToneConversational = "conversational"
	ToneInspirational  = "inspirational"
	ToneBold           = "bold"
)

type NicheInput struct {
	Experience string `json:"experience" validate:"required,min=50,max=5000"`
	Skills     string `json:"skills,omitempty" validate:"max=2000"`
	Interests  string `json:"interests,omitempty" validate:"max=2000"`
}

type AuthorityInput struct {
	Story string `json:"story" validate:"required,min=100,max=10000"`
	Tone  string `json:"tone" validate:"required,oneof=professional conversational inspirational bold"`
}

type DealmakerInput struct {
	ClientName    string `json:"clientName" validate:"required,max=200"`
	ClientCompany string `json:"clientCompany" validate:"required,max=200"`
	Problem       string `json:"problem" validate:"required,min=20,max=5000"`
	Solution      string `json:"solution" validate:"required,min=20,max=5000"`
	Price         string `json:"price" validate:"required,max=100"`
	Timeline      string `json:"timeline" validate:"required,max=200"`
}

// newInput returns an empty input value for the tool.
func newInput(tool entitlements.Tool) (interface{ normalize() }, error) {
	switch tool {
	case entitlements.ToolNiche:
		return &NicheInput{}, nil
	case entitlements.ToolAuthority:
		return &AuthorityInput{}, nil
	case entitlements.ToolDealmaker:
		return &DealmakerInput{}, nil
	default:
		return nil, fmt.Errorf("unknown tool %q", tool)
	}
}

func (in *NicheInput) normalize() {
	in.Experience = strings.TrimSpace(in.Experience)
	in.Skills = strings.TrimSpace(in.Skills)
	in.Interests = strings.TrimSpace(in.Interests)
}

func (in *AuthorityInput) normalize() {
	in.Story = strings.TrimSpace(in.Story)
	in.Tone = strings.ToLower(strings.TrimSpace(in.Tone))
	if in.Tone == "" {
		in.Tone = ToneProfessional
	}
}

func (in *DealmakerInput) normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientCompany = strings.TrimSpace(in.ClientCompany)
	in.Problem = strings.TrimSpace(in.Problem)
	in.Solution = strings.TrimSpace(in.Solution)
	in.Price = strings.TrimSpace(in.Price)
	in.Timeline = strings.TrimSpace(in.Timeline)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns the first validator failure into a caller-facing sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
