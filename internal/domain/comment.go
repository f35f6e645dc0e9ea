package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxCommentLength bounds comment text in characters.
const MaxCommentLength = 2000

// CommentTarget names the report field a comment refers to.
type CommentTarget string

const (
	CommentTargetProblem CommentTarget = "PROBLEM"
	CommentTargetPlan    CommentTarget = "PLAN"
)

// ParseCommentTarget accepts "problem"/"plan" in any case.
func ParseCommentTarget(s string) (CommentTarget, error) {
	target := CommentTarget(strings.ToUpper(strings.TrimSpace(s)))
	switch target {
	case CommentTargetProblem, CommentTargetPlan:
		return target, nil
	default:
		return "", fmt.Errorf("unknown comment target %q", s)
	}
}

// Comment is a manager's remark on a report field.
type Comment struct {
	ID          int64
	ReportID    int64
	OwnerID     int64
	OwnerName   string
	TargetField CommentTarget
	Text        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
