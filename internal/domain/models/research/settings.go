package research

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Settings is a per-session configuration snapshot, captured once at session
// creation so a resumed run behaves identically to the run that started it.
type Settings struct {
	MaxIterations      int    `json:"max_iterations"`
	MaxSearchResults   int    `json:"max_search_results"`
	DefaultModel       string `json:"default_model"`
	ReasonModel        string `json:"reason_model"`
	ReasonModelCtx     *int   `json:"reason_model_ctx,omitempty"`
	UseHostedParser    bool   `json:"use_hosted_parser"`
	UseLocalLLM        bool   `json:"use_local_llm"`
	WithPlanning       bool   `json:"with_planning"`
}

// Validate normalizes and checks a Settings snapshot. A negative
// ReasonModelCtx is treated as "unset" at this boundary per the provider
// default resolution documented for reason_model_ctx.
func (s *Settings) Validate() error {
	if s.ReasonModelCtx != nil && *s.ReasonModelCtx < 0 {
		s.ReasonModelCtx = nil
	}
	return validation.ValidateStruct(s,
		validation.Field(&s.MaxIterations, validation.Required, validation.Min(1)),
		validation.Field(&s.MaxSearchResults, validation.Required, validation.Min(1)),
		validation.Field(&s.DefaultModel, validation.Required),
		validation.Field(&s.ReasonModel, validation.Required),
	)
}

// DefaultSettings mirrors the feature-flag defaults a fresh session gets when
// the caller omits them from the research request.
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:    3,
		MaxSearchResults: 5,
		DefaultModel:     "claude-haiku-4-5-20251001",
		ReasonModel:      "claude-sonnet-4-5-20250929",
		UseHostedParser:  true,
		WithPlanning:     true,
	}
}
