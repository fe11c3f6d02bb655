package rulebook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"vecna/internal/catalog"
	"vecna/internal/config"
	"vecna/internal/logging"
	"vecna/internal/services"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 64 << 20
	defaultMinTextChars = 200
)

// Store persists parse results.
type Store interface {
	SaveRulebookParse(ctx context.Context, parse catalog.RulebookParse) error
}

// Options tunes fetching and extraction.
type Options struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	MinTextChars int
	HTTPClient   *http.Client
}

// Parser fetches and parses rulebooks.
type Parser struct {
	store  Store
	opts   Options
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewParser constructs a parser. Zero options fall back to defaults.
func NewParser(store Store, opts Options, logger *slog.Logger) *Parser {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.MinTextChars <= 0 {
		opts.MinTextChars = defaultMinTextChars
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Parser{
		store:  store,
		opts:   opts,
		client: client,
		logger: logging.NewComponentLogger(logger, "rulebook"),
		now:    time.Now,
	}
}

// NewParserFromConfig builds a parser from the [rulebook] section.
func NewParserFromConfig(cfg *config.Config, store Store, logger *slog.Logger) *Parser {
	var opts Options
	if cfg != nil {
		opts = Options{
			FetchTimeout: cfg.FetchTimeout(),
			MaxBytes:     cfg.Rulebook.MaxBytes,
			MinTextChars: cfg.Rulebook.MinTextChars,
		}
	}
	return NewParser(store, opts, logger)
}

// ParseRulebook runs the full parse for game and saves the result.
func (p *Parser) ParseRulebook(ctx context.Context, game *catalog.Game) error {
	if game == nil {
		return services.Wrap(services.ErrValidation, "", "", "No game supplied", nil)
	}
	source := strings.TrimSpace(game.RulebookURL)
	if source == "" {
		return services.Wrap(services.ErrValidation, "", "", "No rulebook URL set", nil)
	}
	logger := logging.WithContext(ctx, p.logger)

	data, err := p.fetch(ctx, source)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return services.Wrap(services.ErrValidation, "", "", "Rulebook is not a PDF", nil)
	}

	text, pages, err := ExtractText(data)
	if err != nil {
		logger.Warn("rulebook extraction failed",
			logging.String("source", source),
			logging.Error(err),
		)
		return services.Wrap(services.ErrValidation, "", "", "Rulebook PDF could not be read", err)
	}
	chars := len([]rune(text))
	if chars < p.opts.MinTextChars {
		logger.Info("rulebook text below threshold",
			logging.Int("text_chars", chars),
			logging.Int("min_text_chars", p.opts.MinTextChars),
			logging.Int("pages", pages),
		)
		return services.Wrap(services.ErrValidation, "", "", "No text extracted", nil)
	}

	parse := catalog.RulebookParse{
		GameID:     game.ID,
		TextChars:  chars,
		PageCount:  pages,
		Complexity: Complexity(text, pages),
		ParsedAt:   p.now(),
	}
	if err := p.store.SaveRulebookParse(ctx, parse); err != nil {
		return services.Wrap(services.ErrTransient, "", "", "Saving rulebook parse failed", err)
	}
	logger.Info("rulebook parsed",
		logging.Int("text_chars", chars),
		logging.Int("pages", pages),
		logging.Float64("complexity", parse.Complexity),
	)
	return nil
}

func (p *Parser) fetch(ctx context.Context, source string) ([]byte, error) {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return p.download(ctx, source)
	}
	return p.readFile(strings.TrimPrefix(source, "file://"))
}

func (p *Parser) download(ctx context.Context, url string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "", "Rulebook URL is invalid", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "", "", "Rulebook download timed out", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "", "", "Rulebook download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrExternalTool
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, "", "", fmt.Sprintf("Rulebook download failed: HTTP %d", resp.StatusCode), nil)
	}
	return p.readLimited(resp.Body)
}

func (p *Parser) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "", "", "Rulebook file not found", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "", "", "Rulebook file could not be opened", err)
	}
	defer file.Close()
	return p.readLimited(file)
}

func (p *Parser) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.opts.MaxBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "", "", "Rulebook read failed", err)
	}
	if int64(len(data)) > p.opts.MaxBytes {
		return nil, services.Wrap(services.ErrValidation, "", "", fmt.Sprintf("Rulebook exceeds %d bytes", p.opts.MaxBytes), nil)
	}
	return data, nil
}
