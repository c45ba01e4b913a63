package ai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/finbot/backend/internal/model/chat"
	"github.com/zhouzirui/finbot/backend/internal/model/market"
	"github.com/zhouzirui/finbot/backend/internal/service/ai"
)

type recordingModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *recordingModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestCompleteReplaysHistoryBeforePrompt(t *testing.T) {
	ctx := context.Background()
	fake := &recordingModel{reply: "AAPL trades at 189.84."}
	svc, err := ai.NewService(ctx, fake, 0)
	require.NoError(t, err)

	history := []chat.Turn{
		{Role: chat.RoleUser, Content: "hi"},
		{Role: chat.RoleAssistant, Content: "hello"},
	}
	reply, err := svc.Complete(ctx, "s1", history, "What's the price? {not a placeholder}")
	require.NoError(t, err)
	require.Equal(t, "AAPL trades at 189.84.", reply)

	require.Len(t, fake.input, 3)
	require.Equal(t, schema.User, fake.input[0].Role)
	require.Equal(t, "hi", fake.input[0].Content)
	require.Equal(t, schema.Assistant, fake.input[1].Role)
	require.Equal(t, schema.User, fake.input[2].Role)
	require.Equal(t, "What's the price? {not a placeholder}", fake.input[2].Content)
}

func TestCompleteHonoursHistoryLimit(t *testing.T) {
	ctx := context.Background()
	fake := &recordingModel{reply: "ok"}
	svc, err := ai.NewService(ctx, fake, 2)
	require.NoError(t, err)

	history := []chat.Turn{
		{Role: chat.RoleUser, Content: "1"},
		{Role: chat.RoleAssistant, Content: "2"},
		{Role: chat.RoleUser, Content: "3"},
		{Role: chat.RoleAssistant, Content: "4"},
	}
	_, err = svc.Complete(ctx, "s1", history, "5")
	require.NoError(t, err)

	require.Len(t, fake.input, 3)
	require.Equal(t, "3", fake.input[0].Content)
}

func TestCompleteSurfacesModelFailure(t *testing.T) {
	ctx := context.Background()
	svc, err := ai.NewService(ctx, &recordingModel{err: errors.New("provider timeout")}, 0)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "s1", nil, "hello")
	require.Error(t, err)
}

func TestCompleteRejectsEmptyReply(t *testing.T) {
	ctx := context.Background()
	svc, err := ai.NewService(ctx, &recordingModel{reply: "  "}, 0)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "s1", nil, "hello")
	require.ErrorIs(t, err, ai.ErrEmptyCompletion)
}

func TestBuildGroundingNamesQueryAndData(t *testing.T) {
	snap := &market.Snapshot{
		Query:   "AAPL",
		Symbols: []string{"AAPL"},
		Tickers: []market.Ticker{{Symbol: "AAPL", CurrentPrice: market.FromFloat(189.84)}},
	}

	grounding := ai.BuildGrounding("AAPL", snap)
	require.True(t, strings.HasPrefix(grounding, "You are a helpful financial analyst. You are analyzing stock data for AAPL."))
	require.Contains(t, grounding, "- current_price: 189.84")

	prompt := ai.BuildPrompt(grounding, "What's the price?")
	require.True(t, strings.HasSuffix(prompt, "\n\nUser: What's the price?"))
}
