package assessment

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"permalens/internal/dimension"
)

//go:embed questions.yaml
var defaultBankYAML []byte

const (
	defaultScaleStart = 0
	defaultScaleEnd   = 10

	defaultPersonalLabel = "In your personal life"
	defaultWorkLabel     = "At work"
)

type questionDoc struct {
	Questions []bankQuestion `yaml:"questions"`
}

type bankQuestion struct {
	Text          string `yaml:"text"`
	Dimension     string `yaml:"dimension"`
	PersonalLabel string `yaml:"personal_label"`
	WorkLabel     string `yaml:"work_label"`
	ScaleStart    *int   `yaml:"scale_start"`
	ScaleEnd      *int   `yaml:"scale_end"`
	AnchorLow     string `yaml:"anchor_low"`
	AnchorHigh    string `yaml:"anchor_high"`
}

// DefaultQuestionBank parses the embedded default question set. Display
// order follows document order.
func DefaultQuestionBank() ([]Question, error) {
	return ParseQuestionBank(defaultBankYAML)
}

// ParseQuestionBank parses a YAML question-bank document into the seed
// set for an empty database. Every question must carry text and a real
// dimension code; scale bounds default to 0-10 and must satisfy
// start < end.
func ParseQuestionBank(data []byte) ([]Question, error) {
	var doc questionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("assessment: parse question bank: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("assessment: question bank is empty")
	}

	questions := make([]Question, 0, len(doc.Questions))
	for i, item := range doc.Questions {
		if item.Text == "" {
			return nil, fmt.Errorf("assessment: question %d has no text", i+1)
		}
		code := dimension.Code(item.Dimension)
		if !dimension.IsReal(code) {
			return nil, fmt.Errorf("assessment: question %d: %w: %q", i+1, dimension.ErrUnknown, item.Dimension)
		}

		q := Question{
			Text:          item.Text,
			Dimension:     code,
			PersonalLabel: item.PersonalLabel,
			WorkLabel:     item.WorkLabel,
			ScaleStart:    defaultScaleStart,
			ScaleEnd:      defaultScaleEnd,
			AnchorLow:     item.AnchorLow,
			AnchorHigh:    item.AnchorHigh,
			DisplayOrder:  i + 1,
			Active:        true,
		}
		if q.PersonalLabel == "" {
			q.PersonalLabel = defaultPersonalLabel
		}
		if q.WorkLabel == "" {
			q.WorkLabel = defaultWorkLabel
		}
		if item.ScaleStart != nil {
			q.ScaleStart = *item.ScaleStart
		}
		if item.ScaleEnd != nil {
			q.ScaleEnd = *item.ScaleEnd
		}
		if q.ScaleStart >= q.ScaleEnd {
			return nil, fmt.Errorf("assessment: question %d: scale [%d, %d] is invalid", i+1, q.ScaleStart, q.ScaleEnd)
		}
		questions = append(questions, q)
	}
	return questions, nil
}
