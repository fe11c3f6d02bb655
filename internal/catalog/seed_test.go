package catalog_test

import (
	"context"
	"strings"
	"testing"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
	"vecna/internal/testsupport"
)

const sampleSeed = `
families:
  - id: catan
    name: Catan
    base_game: catan-base
games:
  - id: catan-base
    bgg_id: 13
    name: Catan
    family: catan
    position: 0
    rulebook_url: https://example.com/catan.pdf
  - id: catan-seafarers
    name: Catan Seafarers
    family: catan
    position: 1
    state: enriched
`

func TestImportSeed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	result, err := store.ImportSeed(ctx, strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("ImportSeed failed: %v", err)
	}
	if result.Families != 1 || result.Games != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	games, err := store.FamilyGames(ctx, "catan")
	if err != nil {
		t.Fatalf("FamilyGames failed: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if !games[0].HasRulebook || games[0].State != pipeline.StateImported {
		t.Fatalf("unexpected base game: %+v", games[0])
	}
	if games[1].State != pipeline.StateEnriched {
		t.Fatalf("expected seeded state enriched, got %s", games[1].State)
	}

	// Re-importing keeps pipeline state.
	if _, err := store.CompareAndSetState(ctx, "catan-base", pipeline.StateImported, pipeline.StateEnriched, ""); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := store.ImportSeed(ctx, strings.NewReader(sampleSeed)); err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	base, err := store.GetGame(ctx, "catan-base")
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if base.State != pipeline.StateEnriched {
		t.Fatalf("re-import reset state to %s", base.State)
	}
}

func TestParseSeedRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown state": "games:\n  - name: X\n    state: flying\n",
		"missing name":  "games:\n  - id: x\n",
		"unknown field": "games:\n  - name: X\n    colour: red\n",
		"family id":     "families:\n  - name: Nameless\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := catalog.ParseSeed(strings.NewReader(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseSeedEmpty(t *testing.T) {
	seed, err := catalog.ParseSeed(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseSeed failed: %v", err)
	}
	if len(seed.Games) != 0 {
		t.Fatalf("expected empty seed, got %+v", seed)
	}
}
