package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

// Classifier turns a free-text prompt into a short completion.
type Classifier interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrNoCompletion is wrapped when the model returns no message at all.
	ErrNoCompletion = errors.New("model returned no message")
	// ErrNotConfigured is wrapped by Unavailable.
	ErrNotConfigured = errors.New("classifier not configured")
)

// Unavailable returns a Classifier that fails every call, used when no model is configured.
func Unavailable() Classifier {
	return Func(func(context.Context, string) (string, error) {
		return "", &Error{Op: "complete", Err: ErrNotConfigured}
	})
}

// Error reports a failed classification call (network, quota, model failure).
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Gateway is the Classifier backed by an eino chat model chain.
type Gateway struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewGateway compiles the single-turn completion chain around chatModel.
func NewGateway(ctx context.Context, chatModel model.ChatModel) (*Gateway, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile classifier chain: %w", err)
	}

	return &Gateway{chatModel: chatModel, chain: runnable}, nil
}

// Complete sends prompt as a single user turn and returns the raw completion text.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := g.chain.Invoke(ctx, map[string]any{"prompt": prompt})
	if err != nil {
		return "", &Error{Op: "complete", Err: err}
	}
	if msg == nil {
		return "", &Error{Op: "complete", Err: ErrNoCompletion}
	}

	log.Debug().Str("component", "classifier").Int("prompt_len", len(prompt)).Int("completion_len", len(msg.Content)).Msg("completion received")
	return msg.Content, nil
}

// ChatModel returns the underlying model.
func (g *Gateway) ChatModel() model.ChatModel {
	return g.chatModel
}
