package advisor

import (
	"slices"
	"strings"
)

// Validate checks the input before any network call. The first question of
// a session needs the full student background; follow-ups only need text.
func (in UserInput) Validate() error {
	var fields []FieldError

	if strings.TrimSpace(in.RawText) == "" {
		fields = append(fields, FieldError{Field: "rawText", Reason: "required"})
	}

	if in.IsFollowUp {
		fields = append(fields, in.scoreTypeErrors()...)
	} else {
		fields = append(fields, in.backgroundErrors()...)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateBackground checks only the student background, so an interactive
// session can reject bad flags before the first question is typed.
func (in UserInput) ValidateBackground() error {
	if fields := in.backgroundErrors(); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (in UserInput) backgroundErrors() []FieldError {
	var fields []FieldError

	switch {
	case in.Province == "":
		fields = append(fields, FieldError{Field: "province", Reason: "required"})
	case !IsProvince(in.Province):
		fields = append(fields, FieldError{Field: "province", Reason: "unknown province " + in.Province})
	}

	if strings.TrimSpace(in.Rank) == "" {
		fields = append(fields, FieldError{Field: "rank", Reason: "required"})
	}

	switch {
	case in.Stream == "":
		fields = append(fields, FieldError{Field: "stream", Reason: "required"})
	case !IsStream(in.Stream):
		fields = append(fields, FieldError{Field: "stream", Reason: "must be one of " + strings.Join(Streams, ", ")})
	}

	return append(fields, in.scoreTypeErrors()...)
}

func (in UserInput) scoreTypeErrors() []FieldError {
	if in.ScoreType != "" && !slices.Contains(ScoreTypes, in.ScoreType) {
		return []FieldError{{Field: "scoreType", Reason: "must be one of " + strings.Join(ScoreTypes, ", ")}}
	}
	return nil
}
