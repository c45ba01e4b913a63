package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/finbot/backend/internal/model/chat"
)

var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Service wraps the chat model in an eino chain that replays the session
// transcript before the new prompt.
type Service struct {
	chatModel    model.BaseChatModel
	historyLimit int
	chain        compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the completion chain. historyLimit <= 0 replays the whole transcript.
func NewService(ctx context.Context, chatModel model.BaseChatModel, historyLimit int) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel:    chatModel,
		historyLimit: historyLimit,
		chain:        runnable,
	}, nil
}

// Complete sends history plus prompt to the model and returns the reply text.
func (s *Service) Complete(ctx context.Context, sessionID string, history []chat.Turn, prompt string) (string, error) {
	input := map[string]any{
		"history": s.buildHistoryMessages(history),
		"query":   prompt,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyCompletion
	}

	log.Printf("[ai] generated response for session=%s, history=%d, length=%d", sessionID, len(history), len(response.Content))
	return response.Content, nil
}

func (s *Service) buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if s.historyLimit > 0 && len(turns) > s.historyLimit {
		startIdx = len(turns) - s.historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, t := range turns[startIdx:] {
		switch t.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(t.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(t.Content, nil))
		}
	}

	return history
}
