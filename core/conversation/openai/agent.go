// Package openai implements a conversation agent against the OpenAI chat
// completions API. The agent keeps per-conversation message history so the
// continue-conversation flow carries context between runs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/krelja/assist-core/core/conversation"
)

const (
	defaultURL   = "https://api.openai.com/v1/chat/completions"
	defaultModel = "gpt-4o-mini"

	defaultSystemPrompt = "You are a voice assistant for a smart home." +
		" Answer in plain sentences suitable for being spoken aloud, without markup." +
		" Keep answers short."
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

type requestBody struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type responseBody struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type Agent struct {
	apiKey       string
	model        string
	url          string
	systemPrompt string
	languages    []string
	client       *http.Client

	historyMu sync.Mutex
	history   map[string][]chatMessage
}

type Option func(*Agent)

func WithModel(model string) Option {
	return func(a *Agent) {
		a.model = model
	}
}

// WithBaseURL points the agent at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(a *Agent) {
		a.url = url
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithSupportedLanguages restricts which pipeline languages the agent
// accepts. The default is every language.
func WithSupportedLanguages(languages ...string) Option {
	return func(a *Agent) {
		a.languages = languages
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *Agent) {
		a.client = client
	}
}

func NewAgent(apiKey string, opts ...Option) *Agent {
	agent := &Agent{
		apiKey:       apiKey,
		model:        defaultModel,
		url:          defaultURL,
		systemPrompt: defaultSystemPrompt,
		languages:    []string{"*"},
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		history: map[string][]chatMessage{},
	}
	for _, opt := range opts {
		opt(agent)
	}
	return agent
}

func (a *Agent) SupportedLanguages() []string {
	return a.languages
}

func (a *Agent) Converse(ctx context.Context, input conversation.Input) (conversation.Result, error) {
	conversationID := input.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	messages := []chatMessage{{Role: roleSystem, Content: a.systemPrompt}}
	messages = append(messages, a.historyFor(conversationID)...)
	messages = append(messages, chatMessage{Role: roleUser, Content: input.Text})

	reply, err := a.complete(ctx, messages)
	if err != nil {
		return conversation.Result{}, err
	}

	a.appendHistory(conversationID,
		chatMessage{Role: roleUser, Content: input.Text},
		chatMessage{Role: roleAssistant, Content: reply},
	)

	return conversation.Result{
		Speech:         reply,
		ConversationID: conversationID,
	}, nil
}

func (a *Agent) complete(ctx context.Context, messages []chatMessage) (string, error) {
	requestBodyBytes, err := json.Marshal(requestBody{Model: a.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+a.apiKey)

	response, err := a.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non-OK HTTP status: %s", response.Status)
	}

	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var body responseBody
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return "", fmt.Errorf("error unmarshalling response body: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return body.Choices[0].Message.Content, nil
}

// historyFor returns a deep copy of the stored conversation so callers never
// share slices with the agent's internal state.
func (a *Agent) historyFor(conversationID string) []chatMessage {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()
	stored, ok := a.history[conversationID]
	if !ok {
		return nil
	}
	var copied []chatMessage
	if err := copier.Copy(&copied, &stored); err != nil {
		return nil
	}
	return copied
}

func (a *Agent) appendHistory(conversationID string, messages ...chatMessage) {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()
	a.history[conversationID] = append(a.history[conversationID], messages...)
}
