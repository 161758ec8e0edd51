package client

import "context"

// PromptField identifies what is being asked for.
type PromptField string

const (
	PromptName   PromptField = "name"
	PromptIncome PromptField = "income"
)

// PromptRequest asks the user for one value.
type PromptRequest struct {
	Field   PromptField
	Message string
}

// PromptResponse is the user's answer. Cancelled means the prompt was dismissed.
type PromptResponse struct {
	Value     string
	Cancelled bool
}

// Prompter suspends the caller until the user answers or dismisses the prompt.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (PromptResponse, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, req PromptRequest) (PromptResponse, error)

// Prompt implements Prompter.
func (f PrompterFunc) Prompt(ctx context.Context, req PromptRequest) (PromptResponse, error) {
	return f(ctx, req)
}
