package ai

import (
	"fmt"

	"github.com/zhouzirui/finbot/backend/internal/analysis/digest"
	"github.com/zhouzirui/finbot/backend/internal/model/market"
)

const analystPreamble = `You are a helpful financial analyst. You are analyzing stock data for %s.
Here is the current data:

%s
Previous conversation context is maintained automatically.
Please analyze this data and provide insights based on the user's question.
Fields shown as %s were not reported by the data provider. If data is missing or invalid, politely inform the user and work with whatever data is available. Never treat a missing value as zero.`

// BuildGrounding returns the analyst instructions followed by the snapshot digest.
func BuildGrounding(query string, snap *market.Snapshot) string {
	return fmt.Sprintf(analystPreamble, query, digest.Format(snap), digest.Missing)
}

// BuildPrompt appends the user's latest message to the grounding text.
func BuildPrompt(grounding, userMessage string) string {
	return grounding + "\n\nUser: " + userMessage
}
