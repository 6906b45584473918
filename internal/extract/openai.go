package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/pkg/openai"
)

const extractSystemPrompt = `You identify the manufacturer of an electronic component from document text.
Respond with a JSON object: {"manufacturer": "<canonical manufacturer name>", "confidence": <0.0-1.0>}.
Use the manufacturer's canonical English name. If the text does not identify
the manufacturer of the given part, respond {"manufacturer": "", "confidence": 0}.`

// OpenAIExtractor answers via an OpenAI chat completion in JSON mode.
type OpenAIExtractor struct {
	client openai.Client
	model  string
}

// NewOpenAIExtractor wraps an OpenAI client. An empty model uses the
// client's default.
func NewOpenAIExtractor(client openai.Client, model string) *OpenAIExtractor {
	return &OpenAIExtractor{client: client, model: model}
}

func (e *OpenAIExtractor) ExtractManufacturer(ctx context.Context, text, partNumber, hint string) (Extraction, error) {
	temp := 0.0
	req := openai.ChatCompletionRequest{
		Model:          e.model,
		Temperature:    &temp,
		ResponseFormat: &openai.ResponseFormat{Type: "json_object"},
		Messages: []openai.Message{
			{Role: "system", Content: extractSystemPrompt},
			{Role: "user", Content: buildExtractPrompt(text, partNumber, hint)},
		},
	}

	resp, err := e.client.ChatCompletion(ctx, req)
	if err != nil {
		return Extraction{}, eris.Wrap(err, "extract: chat completion")
	}
	if len(resp.Choices) == 0 {
		return Extraction{}, eris.New("extract: empty completion")
	}

	return parseExtraction(resp.Choices[0].Message.Content)
}

func buildExtractPrompt(text, partNumber, hint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Part number: %s\n", partNumber)
	if hint != "" {
		fmt.Fprintf(&b, "Suspected manufacturer (may be wrong): %s\n", hint)
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(RelevantText(text, partNumber, hint))
	return b.String()
}

// parseExtraction decodes the model's JSON answer. It tolerates fences
// and prose around the object by extracting the outermost braces.
func parseExtraction(content string) (Extraction, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		zap.L().Debug("extraction answer has no JSON object", zap.String("content", content))
		return Extraction{}, eris.New("extract: no JSON object in answer")
	}

	var raw struct {
		Manufacturer string  `json:"manufacturer"`
		Confidence   float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return Extraction{}, eris.Wrap(err, "extract: decode answer")
	}

	if raw.Confidence < 0 {
		raw.Confidence = 0
	}
	if raw.Confidence > 1 {
		raw.Confidence = 1
	}
	return Extraction{
		Manufacturer: strings.TrimSpace(raw.Manufacturer),
		Confidence:   raw.Confidence,
	}, nil
}
