package quiz

import "fmt"

// PromptKind tells the client which confirmation wording applies.
type PromptKind string

const (
	PromptAllAnswered  PromptKind = "all_answered"
	PromptPartial      PromptKind = "partial"
	PromptNoneAnswered PromptKind = "none_answered"
)

// ConfirmationPrompt is returned when a manual submit has not been confirmed yet.
type ConfirmationPrompt struct {
	Kind       PromptKind `json:"kind"`
	Unanswered int        `json:"unanswered"`
	Total      int        `json:"total"`
	Message    string     `json:"message"`
}

// Confirmation builds the prompt for p.
func Confirmation(p Progress) ConfirmationPrompt {
	total := p.Answered + p.Remaining
	prompt := ConfirmationPrompt{Unanswered: p.Remaining, Total: total}

	switch {
	case p.Remaining == 0:
		prompt.Kind = PromptAllAnswered
		prompt.Message = fmt.Sprintf("You have answered all %d questions. Submit the quiz?", total)
	case p.Answered == 0:
		prompt.Kind = PromptNoneAnswered
		prompt.Message = "You have not answered any question yet. Submit the quiz anyway?"
	default:
		prompt.Kind = PromptPartial
		prompt.Message = fmt.Sprintf("You still have %d of %d questions unanswered. Submit the quiz anyway?", p.Remaining, total)
	}
	return prompt
}
