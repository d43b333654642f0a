// Package dimension defines the fixed category vocabulary for the
// assessment: the six PERMA-V well-being dimensions, the reserved
// composite code for the overall index, and the two rating contexts.
//
// The set is closed. Data arriving with a code outside it is a
// data-integrity warning, not a fatal error — aggregation skips
// unknown codes rather than rejecting the whole operation, because
// stored responses may reference stale categorization schemes.
package dimension

import (
	"errors"
	"fmt"
)

// Code identifies a well-being dimension.
type Code string

const (
	PositiveEmotion Code = "P"
	Engagement      Code = "E"
	Relationships   Code = "R"
	Meaning         Code = "M"
	Accomplishment  Code = "A"
	Vitality        Code = "V"

	// Composite is the reserved pseudo-code for the overall index row.
	// It is never a valid code for a question or raw response.
	Composite Code = "PERMA"
)

// Context is one of the two parallel rating axes per question.
type Context string

const (
	Personal Context = "personal"
	Work     Context = "work"
)

// ErrUnknown is returned for codes outside the fixed set.
var ErrUnknown = errors.New("unknown dimension code")

// ordered is the display order of the six real dimensions.
var ordered = []Code{
	PositiveEmotion,
	Engagement,
	Relationships,
	Meaning,
	Accomplishment,
	Vitality,
}

var names = map[Code]string{
	PositiveEmotion: "Positive Emotion",
	Engagement:      "Engagement",
	Relationships:   "Relationships",
	Meaning:         "Meaning",
	Accomplishment:  "Accomplishment",
	Vitality:        "Vitality",
	Composite:       "Overall Well-Being",
}

// compositeConstituents is the fixed subset of real dimensions that feed
// the overall index. Vitality is reported per-dimension but excluded
// from the composite, matching the product's defined index.
var compositeConstituents = []Code{
	PositiveEmotion,
	Engagement,
	Relationships,
	Meaning,
	Accomplishment,
}

// Codes returns the ordered list of the six real dimension codes.
// The composite pseudo-code is not included.
func Codes() []Code {
	out := make([]Code, len(ordered))
	copy(out, ordered)
	return out
}

// CompositeConstituents returns the fixed subset of dimension codes
// whose means feed the overall index.
func CompositeConstituents() []Code {
	out := make([]Code, len(compositeConstituents))
	copy(out, compositeConstituents)
	return out
}

// Known reports whether the code belongs to the fixed set.
// The composite pseudo-code counts as known.
func Known(c Code) bool {
	_, ok := names[c]
	return ok
}

// IsReal reports whether the code is one of the six real dimensions
// (composite excluded).
func IsReal(c Code) bool {
	return Known(c) && c != Composite
}

// DisplayName returns the human-readable name for a code.
func DisplayName(c Code) (string, error) {
	name, ok := names[c]
	if !ok {
		return "", fmt.Errorf("dimension: %w: %q", ErrUnknown, c)
	}
	return name, nil
}

// Contexts returns both rating contexts in presentation order.
func Contexts() []Context {
	return []Context{Personal, Work}
}
