package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/theirongolddev/budgetchat/internal/chat"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// ErrNoChoices indicates a completion with nothing to read.
var ErrNoChoices = errors.New("estimate: no choices in completion")

const systemPrompt = `You are an assistant that drafts construction budgets.
Answer with a single JSON object and nothing else:
{"reply": "<text for the user>", "mutation": <optional>}
The mutation is either {"replace": <document>} or {"ops": [<op>, ...]}.
A document is {"sections": [{"title": "...", "items": [<item>, ...]}]}.
An item is {"name": "...", "quantity": "<decimal>", "unit": "...", "unit_price": "<decimal>"}.
Ops: replace_section {section, new_section}, append_section {new_section},
remove_section {section}, append_item {section, item},
remove_item {section, index}, update_item {section, index, item}.
Indexes are zero-based. Omit mutation when the budget does not change.
Amounts are in euros. The current budget is:
`

// OpenAI asks a chat-completion model for the wire reply.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an estimator. An empty baseURL keeps the public API,
// an empty model uses DefaultOpenAIModel.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// Estimate sends the history with the current document in the system prompt.
func (o *OpenAI) Estimate(ctx context.Context, req Request) (Reply, error) {
	completion, err := o.client.CreateChatCompletion(ctx, toCompletionRequest(o.model, req))
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case 401, 403:
				return Reply{}, fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case 429:
				return Reply{}, fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
			}
		}
		return Reply{}, fmt.Errorf("estimate: openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Reply{}, ErrNoChoices
	}
	return DecodeReply([]byte(completion.Choices[0].Message.Content))
}

func toCompletionRequest(model string, req Request) openai.ChatCompletionRequest {
	doc, err := json.Marshal(req.Document)
	if err != nil {
		doc = []byte(`{"sections":[]}`)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt + string(doc),
	})
	for _, m := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    roleFor(m.Sender),
			Content: m.Text,
		})
	}

	return openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

func roleFor(s chat.Sender) string {
	if s == chat.Assistant {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}
