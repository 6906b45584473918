package extract

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Itecs-company/Alias/pkg/anthropic"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicExtractor answers via the Anthropic Messages API. It exists
// as an alternative to the OpenAI backend for deployments that already
// hold an Anthropic key.
type AnthropicExtractor struct {
	client anthropic.Client
	model  string
}

// NewAnthropicExtractor wraps an Anthropic client. An empty model falls
// back to the cheapest suitable one.
func NewAnthropicExtractor(client anthropic.Client, model string) *AnthropicExtractor {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicExtractor{client: client, model: model}
}

func (e *AnthropicExtractor) ExtractManufacturer(ctx context.Context, text, partNumber, hint string) (Extraction, error) {
	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   256,
		Temperature: &temp,
		System:      []anthropic.SystemBlock{{Text: extractSystemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: buildExtractPrompt(text, partNumber, hint)},
		},
	})
	if err != nil {
		return Extraction{}, eris.Wrap(err, "extract: create message")
	}

	var answer string
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer = block.Text
			break
		}
	}
	if answer == "" {
		return Extraction{}, eris.New("extract: empty completion")
	}

	resp.Usage.LogCost(e.model, "extract")
	return parseExtraction(answer)
}
