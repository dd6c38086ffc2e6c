package assistant

import (
	"fmt"

	"go.uber.org/zap"
)

// Options selects and configures a guidance backend.
type Options struct {
	Provider string // "remote", "openai", "claude"
	BaseURL  string // remote only
	Model    string // direct-LLM providers
}

// New builds the configured Client.
func New(opts Options, log *zap.Logger) (Client, error) {
	switch opts.Provider {
	case "", "remote":
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("remote provider needs a base URL")
		}
		return NewRemote(opts.BaseURL, log), nil
	case "openai", "gpt":
		return NewOpenAI(opts.Model, log)
	case "claude", "anthropic":
		return NewClaude(opts.Model, log)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: remote, openai, claude)", opts.Provider)
	}
}
