package main

import (
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

const defaultSearchMaxUses = 3

// ErrMissingAPIKey is returned when an Assistant is constructed without
// a credential. Callers check it with errors.Is and tell the user how
// to set a key instead of letting a doomed request run.
var ErrMissingAPIKey = errors.New("anthropic api key is not configured")

// Assistant runs the two AI contracts: the shot advisory and the
// recipe search. Both are single-try with graceful degradation, so SDK
// retries are turned off.
type Assistant struct {
	client     anthropic.Client
	model      string
	language   string
	searchUses int64
}

// NewAssistant builds the client or fails fast when the key is absent,
// before any request leaves the machine. Extra options (base URL,
// HTTP client) exist for tests.
func NewAssistant(cfg Config, extra ...option.RequestOption) (*Assistant, error) {
	key := strings.TrimSpace(cfg.AnthropicAPIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(externalHTTPClient),
		option.WithMaxRetries(0),
	}
	opts = append(opts, extra...)

	model := cfg.LLMModel
	if model == "" {
		model = defaultAnthropicModel
	}
	language := cfg.AdviceLanguage
	if language == "" {
		language = "English"
	}
	uses := int64(cfg.SearchMaxUses)
	if uses <= 0 {
		uses = defaultSearchMaxUses
	}

	return &Assistant{
		client:     anthropic.NewClient(opts...),
		model:      model,
		language:   language,
		searchUses: uses,
	}, nil
}
