package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
	"vecna/internal/services"
	"vecna/internal/services/llm"
	"vecna/internal/testsupport"
	"vecna/internal/workflow"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type promptLog struct {
	mu      sync.Mutex
	prompts []string
}

func (l *promptLog) add(prompt string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts = append(l.prompts, prompt)
}

func (l *promptLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.prompts...)
}

// fakeProvider answers every request with body unless status is non-zero.
func fakeProvider(t *testing.T, status int, body string, prompts *promptLog) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if prompts != nil && len(req.Messages) == 2 {
			prompts.add(req.Messages[1].Content)
		}
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"provider said no"}}`))
			return
		}
		content, _ := json.Marshal(map[string]string{"body": body})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": string(content)}}},
		})
	}))
}

func newGenerator(t *testing.T, store *catalog.Store, baseURL string) *llm.Generator {
	t.Helper()
	client := llm.NewClient(
		llm.Config{APIKey: "test", BaseURL: baseURL, Model: "demo-model"},
		llm.WithRetryMaxAttempts(1),
		llm.WithSleeper(func(time.Duration) {}),
	)
	return llm.NewGenerator(client, store, []string{"overview", "how_to_play", "strategy"}, "demo-model", nil)
}

func TestGenerateContentStoresEveryType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	game := testsupport.NewGame(t, store, "Wingspan", pipeline.StateGenerating)
	ctx := context.Background()
	if err := store.SaveRulebookParse(ctx, catalog.RulebookParse{GameID: game.ID, TextChars: 9000, PageCount: 12, Complexity: 2.4, ParsedAt: time.Now()}); err != nil {
		t.Fatalf("SaveRulebookParse: %v", err)
	}

	var log promptLog
	srv := fakeProvider(t, 0, "Birds, eggs, and engines.", &log)
	defer srv.Close()

	if err := newGenerator(t, store, srv.URL).GenerateContent(ctx, game); err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	content, err := store.ContentFor(ctx, game.ID)
	if err != nil {
		t.Fatalf("ContentFor: %v", err)
	}
	if len(content) != 3 {
		t.Fatalf("expected 3 content rows, got %d", len(content))
	}
	for _, c := range content {
		if c.Body != "Birds, eggs, and engines." || c.Model != "demo-model" {
			t.Fatalf("unexpected content row: %+v", c)
		}
	}
	stored, err := store.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if !stored.HasContent {
		t.Fatal("expected has_content to be set")
	}
	prompts := log.all()
	if len(prompts) != 3 || !strings.Contains(prompts[0], "Wingspan") || !strings.Contains(prompts[0], "complexity 2.4") {
		t.Fatalf("unexpected prompts: %q", prompts)
	}
}

func TestGenerateContentFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		marker error
		detail string
	}{
		{"rate limited", http.StatusTooManyRequests, "", services.ErrTransient, "Content generation rate limited (HTTP 429)"},
		{"bad credentials", http.StatusUnauthorized, "", services.ErrConfiguration, "Generator rejected credentials (HTTP 401)"},
		{"server error", http.StatusBadGateway, "", services.ErrExternalTool, "Content generation failed for overview (HTTP 502)"},
		{"empty body", 0, "   ", services.ErrExternalTool, "Generator returned empty overview"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			store := testsupport.MustOpenStore(t, cfg)
			game := testsupport.NewGame(t, store, "Root", pipeline.StateGenerating)

			srv := fakeProvider(t, tc.status, tc.body, nil)
			defer srv.Close()

			err := newGenerator(t, store, srv.URL).GenerateContent(context.Background(), game)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if got := services.Details(err); got != tc.detail {
				t.Fatalf("details = %q, want %q", got, tc.detail)
			}
		})
	}
}

func TestGenerateContentUnusableReplies(t *testing.T) {
	cases := []struct {
		name    string
		message map[string]any
		detail  string
	}{
		{"refusal", map[string]any{"content": "", "refusal": "cannot summarise this rulebook"}, "Generator refused overview: cannot summarise this rulebook"},
		{"not json", map[string]any{"content": "Sure! Here is the overview."}, "Generator returned malformed overview"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			store := testsupport.MustOpenStore(t, cfg)
			game := testsupport.NewGame(t, store, "Arkham Horror", pipeline.StateGenerating)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"choices": []any{map[string]any{"message": tc.message}},
				})
			}))
			defer srv.Close()

			err := newGenerator(t, store, srv.URL).GenerateContent(context.Background(), game)
			if !errors.Is(err, services.ErrExternalTool) {
				t.Fatalf("expected external tool error, got %v", err)
			}
			if got := services.Details(err); got != tc.detail {
				t.Fatalf("details = %q, want %q", got, tc.detail)
			}
			content, err := store.ContentFor(context.Background(), game.ID)
			if err != nil {
				t.Fatalf("ContentFor: %v", err)
			}
			if len(content) != 0 {
				t.Fatalf("expected no stored content, got %d rows", len(content))
			}
		})
	}
}

func TestGenerateContentWithoutAPIKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Generator.APIKey = ""
	store := testsupport.MustOpenStore(t, cfg)
	game := testsupport.NewGame(t, store, "Spirit Island", pipeline.StateGenerating)

	err := llm.NewGeneratorFromConfig(cfg, store, nil).GenerateContent(context.Background(), game)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if got := services.Details(err); got != "Generator API key not configured" {
		t.Fatalf("details = %q", got)
	}
}

func TestAdvancerGeneratesAndRollsBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"body":"text"}`}}},
		})
	}))
	defer srv.Close()

	advancer := workflow.NewAdvancer(store, nil, newGenerator(t, store, srv.URL), nil)

	game := testsupport.NewGame(t, store, "Ark Nova", pipeline.StateTaxonomyAssigned)
	updated, err := advancer.Advance(ctx, game.ID, pipeline.StateGenerating)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if updated.State != pipeline.StateGenerated || !updated.HasContent {
		t.Fatalf("unexpected game after generate: state=%s has_content=%v", updated.State, updated.HasContent)
	}

	if _, err := advancer.Advance(ctx, game.ID, pipeline.StateReviewPending); err != nil {
		t.Fatalf("submit for review: %v", err)
	}

	failing.Store(true)
	updated, err = advancer.Advance(ctx, game.ID, pipeline.StateGenerating)
	if !errors.Is(err, pipeline.ErrCollaboratorFailed) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
	if updated.State != pipeline.StateReviewPending {
		t.Fatalf("regenerate failure should roll back to review_pending, got %s", updated.State)
	}
	if updated.Error != "Content generation rate limited (HTTP 429)" {
		t.Fatalf("vecna_error = %q", updated.Error)
	}
}

func TestGeneratorFromConfigUsesEndpoint(t *testing.T) {
	var log promptLog
	srv := fakeProvider(t, 0, "Cards and cubes.", &log)
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithGeneratorEndpoint(srv.URL))
	store := testsupport.MustOpenStore(t, cfg)
	game := testsupport.NewGame(t, store, "Brass", pipeline.StateGenerating)

	if err := llm.NewGeneratorFromConfig(cfg, store, nil).GenerateContent(context.Background(), game); err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if got := len(log.all()); got != len(cfg.Generator.ContentTypes) {
		t.Fatalf("expected %d requests, got %d", len(cfg.Generator.ContentTypes), got)
	}
}
