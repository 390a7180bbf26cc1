package validator

import (
	"fmt"
	"strings"

	"github.com/stemsi/quizdesk-backend/internal/model"
)

// Rule names reported by ValidateQuestion.
const (
	RuleTextRequired       = "text_required"
	RuleCategoryRequired   = "category_required"
	RuleOptionCount        = "option_count"
	RuleOptionTextRequired = "option_text_required"
	RuleDistinctOptions    = "distinct_options"
	RuleSingleCorrect      = "single_correct"
	RuleMarksRange         = "marks_range"
	RuleCategoryQuota      = "category_quota"
)

// MinOptions is the smallest number of options a question may have.
const MinOptions = 2

// hardMaxMarks caps the configured per-question maximum.
const hardMaxMarks = 100

// RuleViolation names one failed editor rule.
type RuleViolation struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// ValidateQuestion checks q against the question editor rules. otherMarks is
// the sum of marks already used in q's category by other questions. An empty
// result means the question may be saved.
func ValidateQuestion(q model.Question, cfg model.QuizConfig, otherMarks int) []RuleViolation {
	var out []RuleViolation
	add := func(kind, format string, args ...interface{}) {
		out = append(out, RuleViolation{Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(q.Text) == "" {
		add(RuleTextRequired, "question text is required")
	}
	if strings.TrimSpace(q.Category) == "" {
		add(RuleCategoryRequired, "category is required")
	}

	if len(q.Options) < MinOptions {
		add(RuleOptionCount, "at least %d options are required, got %d", MinOptions, len(q.Options))
	}

	seen := make(map[string]int, len(q.Options))
	correct := 0
	for i, o := range q.Options {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			add(RuleOptionTextRequired, "option %d has no text", i+1)
			continue
		}
		// Answers are matched by text, so two options must never read the same.
		key := strings.ToLower(text)
		if first, dup := seen[key]; dup {
			add(RuleDistinctOptions, "option %d repeats option %d", i+1, first+1)
		} else {
			seen[key] = i
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		add(RuleSingleCorrect, "exactly one option must be correct, got %d", correct)
	}

	maxMarks := cfg.MaxMarksPerQuestion
	if maxMarks <= 0 || maxMarks > hardMaxMarks {
		maxMarks = hardMaxMarks
	}
	if q.Marks < 1 || q.Marks > maxMarks {
		add(RuleMarksRange, "marks must be between 1 and %d, got %d", maxMarks, q.Marks)
	}

	if quota := cfg.CategoryMarkQuota; quota > 0 && otherMarks+q.Marks > quota {
		add(RuleCategoryQuota, "category %q would reach %d marks, quota is %d", q.Category, otherMarks+q.Marks, quota)
	}

	return out
}
