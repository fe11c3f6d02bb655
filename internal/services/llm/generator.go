package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vecna/internal/catalog"
	"vecna/internal/config"
	"vecna/internal/logging"
	"vecna/internal/services"
)

// Completer produces one content section per call.
type Completer interface {
	Generate(ctx context.Context, prompt Prompt) (Section, error)
}

// ContentStore reads rulebook parses and persists generated content.
type ContentStore interface {
	RulebookParseFor(ctx context.Context, gameID string) (*catalog.RulebookParse, error)
	SaveContent(ctx context.Context, content catalog.Content) error
}

// Generator produces every configured content type for a game.
type Generator struct {
	client       Completer
	store        ContentStore
	contentTypes []string
	model        string
	logger       *slog.Logger
}

// NewGenerator constructs a generator. client may be nil when no API key is
// configured; GenerateContent then fails with a configuration error.
func NewGenerator(client Completer, store ContentStore, contentTypes []string, model string, logger *slog.Logger) *Generator {
	return &Generator{
		client:       client,
		store:        store,
		contentTypes: append([]string(nil), contentTypes...),
		model:        model,
		logger:       logging.NewComponentLogger(logger, "generator"),
	}
}

// NewGeneratorFromConfig builds the client and generator from [generator].
func NewGeneratorFromConfig(cfg *config.Config, store ContentStore, logger *slog.Logger) *Generator {
	if cfg == nil {
		return NewGenerator(nil, store, nil, "", logger)
	}
	var client Completer
	if strings.TrimSpace(cfg.Generator.APIKey) != "" {
		client = NewClient(ClientConfig(cfg.Generator))
	}
	return NewGenerator(client, store, cfg.Generator.ContentTypes, cfg.Generator.Model, logger)
}

// ClientConfig maps the [generator] section onto client settings.
func ClientConfig(gen config.Generator) Config {
	return Config{
		APIKey:         gen.APIKey,
		BaseURL:        gen.BaseURL,
		Model:          gen.Model,
		Referer:        gen.Referer,
		Title:          gen.Title,
		TimeoutSeconds: gen.TimeoutSeconds,
		Temperature:    gen.Temperature,
		MaxTokens:      gen.MaxTokens,
	}
}

// GenerateContent writes each content type in order. Types written before a
// failure stay stored; a retry overwrites them.
func (g *Generator) GenerateContent(ctx context.Context, game *catalog.Game) error {
	if game == nil {
		return services.Wrap(services.ErrValidation, "", "", "No game supplied", nil)
	}
	if g.client == nil {
		return services.Wrap(services.ErrConfiguration, "", "", "Generator API key not configured", nil)
	}
	if len(g.contentTypes) == 0 {
		return services.Wrap(services.ErrConfiguration, "", "", "No content types configured", nil)
	}
	logger := logging.WithContext(ctx, g.logger)

	parse, err := g.store.RulebookParseFor(ctx, game.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "", "", "Loading rulebook parse failed", err)
	}

	for _, contentType := range g.contentTypes {
		start := time.Now()
		section, err := g.client.Generate(ctx, Prompt{
			ContentType: contentType,
			System:      contentSystemPrompt,
			User:        contentPrompt(contentType, game, parse),
		})
		if err != nil {
			logger.Warn("content request failed",
				logging.String("content_type", contentType),
				logging.Error(err),
			)
			return requestFailure(contentType, err)
		}
		body := section.Body
		if body == "" {
			return services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("Generator returned empty %s", contentType), nil)
		}
		model := section.Model
		if model == "" {
			model = g.model
		}
		if err := g.store.SaveContent(ctx, catalog.Content{
			GameID:      game.ID,
			ContentType: contentType,
			Body:        body,
			Model:       model,
		}); err != nil {
			return services.Wrap(services.ErrTransient, "", "", fmt.Sprintf("Saving %s failed", contentType), err)
		}
		logger.Info("content generated",
			logging.String("content_type", contentType),
			logging.Int("chars", len(body)),
			logging.String("model", model),
			logging.String("finish_reason", section.FinishReason),
			logging.Int("prompt_tokens", section.PromptTokens),
			logging.Int("completion_tokens", section.CompletionTokens),
			logging.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

func requestFailure(contentType string, err error) error {
	var refusal *RefusalError
	if errors.As(err, &refusal) {
		return services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("Generator refused %s: %s", contentType, refusal.Refusal), nil)
	}
	if errors.Is(err, ErrMalformedPayload) {
		return services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("Generator returned malformed %s", contentType), err)
	}
	if code, ok := StatusCode(err); ok {
		switch {
		case code == http.StatusTooManyRequests:
			return services.Wrap(services.ErrTransient, "", "", "Content generation rate limited (HTTP 429)", nil)
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "", "", fmt.Sprintf("Generator rejected credentials (HTTP %d)", code), nil)
		default:
			return services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("Content generation failed for %s (HTTP %d)", contentType, code), nil)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "", "", fmt.Sprintf("Content generation timed out for %s", contentType), err)
	}
	return services.Wrap(services.ErrExternalTool, "", "", fmt.Sprintf("Content generation failed for %s", contentType), err)
}
