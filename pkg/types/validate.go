package types

import (
	"errors"

	"github.com/invopop/validation"
)

var errOneOf = errors.New("exactly one of id or path is required")

// Validate checks field ranges.
func (r LoadRequest) Validate() error {
	if (r.ID == "") == (r.Path == "") {
		return errOneOf
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.ContextSize, validation.Min(0)),
		validation.Field(&r.Threads, validation.Min(0)),
		validation.Field(&r.BatchSize, validation.Min(0)),
	)
}

func (r TokenizeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
	)
}

func (r DetokenizeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tokens, validation.Required, validation.Each(validation.Min(int32(0)))),
	)
}

func (r GenerateRequest) Validate() error {
	if r.Prompt == "" && len(r.Tokens) == 0 {
		return errors.New("prompt or tokens is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tokens, validation.Each(validation.Min(int32(0)))),
		validation.Field(&r.MaxTokens, validation.Min(0)),
		validation.Field(&r.Temperature, validation.Min(float32(0)), validation.Max(float32(2))),
		validation.Field(&r.TopP, validation.Min(float32(0)), validation.Max(float32(1))),
		validation.Field(&r.TopK, validation.Min(0)),
		validation.Field(&r.MinP, validation.Min(float32(0)), validation.Max(float32(1))),
		validation.Field(&r.RepetitionPenalty, validation.Min(float32(0))),
	)
}

func (r EmbedRequest) Validate() error {
	if r.Text == "" && len(r.Tokens) == 0 {
		return errors.New("text or tokens is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tokens, validation.Each(validation.Min(int32(0)))),
	)
}
