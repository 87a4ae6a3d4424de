package enums

import "fmt"

// QuestionType maps to the question_type enum in Postgres.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single_choice"
	QuestionTypeMultiSelect  QuestionType = "multi_select"
	QuestionTypeFillBlank    QuestionType = "fill_blank"
	QuestionTypeInlineChoice QuestionType = "inline_choice"
	QuestionTypeMatching     QuestionType = "matching"
	QuestionTypeTrueFalse    QuestionType = "true_false"
)

var validQuestionTypes = []QuestionType{
	QuestionTypeSingleChoice,
	QuestionTypeMultiSelect,
	QuestionTypeFillBlank,
	QuestionTypeInlineChoice,
	QuestionTypeMatching,
	QuestionTypeTrueFalse,
}

// QuestionTypes returns every supported type in display order.
func QuestionTypes() []QuestionType {
	out := make([]QuestionType, len(validQuestionTypes))
	copy(out, validQuestionTypes)
	return out
}

// String implements fmt.Stringer.
func (q QuestionType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuestionType.
func (q QuestionType) IsValid() bool {
	for _, candidate := range validQuestionTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type carry a choice list.
func (q QuestionType) HasOptions() bool {
	switch q {
	case QuestionTypeSingleChoice, QuestionTypeMultiSelect, QuestionTypeInlineChoice, QuestionTypeMatching, QuestionTypeTrueFalse:
		return true
	default:
		return false
	}
}

// ParseQuestionType converts raw input into a QuestionType.
func ParseQuestionType(value string) (QuestionType, error) {
	for _, candidate := range validQuestionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid question type %q", value)
}
