package enums

import "fmt"

// QuestionStatus tracks the admin review state of a generated question.
type QuestionStatus string

const (
	QuestionStatusPendingReview QuestionStatus = "pending_review"
	QuestionStatusApproved      QuestionStatus = "approved"
	QuestionStatusRejected      QuestionStatus = "rejected"
)

var validQuestionStatuses = []QuestionStatus{
	QuestionStatusPendingReview,
	QuestionStatusApproved,
	QuestionStatusRejected,
}

// String implements fmt.Stringer.
func (s QuestionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known QuestionStatus.
func (s QuestionStatus) IsValid() bool {
	for _, candidate := range validQuestionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsReviewDecision reports whether an admin may set this status.
func (s QuestionStatus) IsReviewDecision() bool {
	return s == QuestionStatusApproved || s == QuestionStatusRejected
}

// ParseQuestionStatus converts raw input into a QuestionStatus.
func ParseQuestionStatus(value string) (QuestionStatus, error) {
	for _, candidate := range validQuestionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid question status %q", value)
}
