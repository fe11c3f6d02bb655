package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
	"vecna/internal/testsupport"
)

func TestAddAndGetGame(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	game, err := store.AddGame(ctx, &catalog.Game{Name: "Catan", BGGID: 13, RulebookURL: "/tmp/catan.pdf"})
	if err != nil {
		t.Fatalf("AddGame failed: %v", err)
	}
	if game.ID == "" {
		t.Fatal("expected generated id")
	}
	if game.State != pipeline.StateImported {
		t.Fatalf("state = %s, want imported", game.State)
	}
	if !game.HasRulebook {
		t.Fatal("rulebook url should imply has_rulebook")
	}
	if game.StateEnteredAt.IsZero() || game.CreatedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", game)
	}

	fetched, err := store.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if fetched.Name != "Catan" || fetched.BGGID != 13 {
		t.Fatalf("unexpected fetched game: %+v", fetched)
	}
}

func TestGetGameNotFound(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.GetGame(context.Background(), "missing"); !errors.Is(err, catalog.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestAddGameRejectsUnknownState(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.AddGame(context.Background(), &catalog.Game{Name: "X", State: "bogus"}); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestCompareAndSetState(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	game := testsupport.NewGame(t, store, "Azul", pipeline.StateRulebookReady)

	updated, err := store.CompareAndSetState(ctx, game.ID, pipeline.StateRulebookReady, pipeline.StateParsing, "")
	if err != nil {
		t.Fatalf("CompareAndSetState failed: %v", err)
	}
	if updated.State != pipeline.StateParsing || updated.PreviousState != pipeline.StateRulebookReady {
		t.Fatalf("unexpected game after CAS: %+v", updated)
	}

	_, err = store.CompareAndSetState(ctx, game.ID, pipeline.StateRulebookReady, pipeline.StateParsing, "")
	if !errors.Is(err, catalog.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	failed, err := store.CompareAndSetState(ctx, game.ID, pipeline.StateParsing, pipeline.StateRulebookReady, "No text extracted")
	if err != nil {
		t.Fatalf("rollback CAS failed: %v", err)
	}
	if failed.Error != "No text extracted" {
		t.Fatalf("error = %q", failed.Error)
	}

	cleared, err := store.CompareAndSetState(ctx, game.ID, pipeline.StateRulebookReady, pipeline.StateParsing, "")
	if err != nil {
		t.Fatalf("CAS failed: %v", err)
	}
	if cleared.Error != "" {
		t.Fatalf("expected error cleared, got %q", cleared.Error)
	}

	if _, err := store.CompareAndSetState(ctx, "missing", pipeline.StateParsing, pipeline.StateParsed, ""); !errors.Is(err, catalog.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestCompareAndSetStateSingleWinner(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	game := testsupport.NewGame(t, store, "Race", pipeline.StateTaxonomyAssigned)

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CompareAndSetState(context.Background(), game.ID, pipeline.StateTaxonomyAssigned, pipeline.StateGenerating, "")
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if successes != 1 {
		t.Fatalf("expected exactly one successful writer, got %d", successes)
	}
}

func TestPublishedFlagFollowsState(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	game := testsupport.NewGame(t, store, "Wingspan", pipeline.StateReviewPending)

	published, err := store.CompareAndSetState(ctx, game.ID, pipeline.StateReviewPending, pipeline.StatePublished, "")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !published.IsPublished {
		t.Fatal("expected is_published after entering published")
	}
	reset, err := store.CompareAndSetState(ctx, game.ID, pipeline.StatePublished, pipeline.StateParsed, "")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.IsPublished {
		t.Fatal("expected is_published cleared after reset")
	}
}

func TestUpdateFlags(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	game := testsupport.NewGame(t, store, "Root", pipeline.StateEnriched)

	url := "https://example.com/root.pdf"
	updated, err := store.UpdateFlags(ctx, game.ID, catalog.FlagUpdate{RulebookURL: &url})
	if err != nil {
		t.Fatalf("UpdateFlags failed: %v", err)
	}
	if !updated.HasRulebook || updated.RulebookURL != url {
		t.Fatalf("unexpected flags: %+v", updated)
	}

	no := false
	updated, err = store.UpdateFlags(ctx, game.ID, catalog.FlagUpdate{HasRulebook: &no})
	if err != nil {
		t.Fatalf("UpdateFlags failed: %v", err)
	}
	if updated.HasRulebook {
		t.Fatal("expected has_rulebook cleared")
	}

	if _, err := store.UpdateFlags(ctx, "missing", catalog.FlagUpdate{HasRulebook: &no}); !errors.Is(err, catalog.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestListGamesFiltersByState(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.NewGame(t, store, "A", pipeline.StateImported)
	testsupport.NewGame(t, store, "B", pipeline.StateParsed)
	testsupport.NewGame(t, store, "C", pipeline.StateParsed)

	all, err := store.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 games, got %d", len(all))
	}
	parsed, err := store.ListGames(ctx, pipeline.StateParsed)
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 parsed games, got %d", len(parsed))
	}

	counts, err := store.CountByState(ctx)
	if err != nil {
		t.Fatalf("CountByState failed: %v", err)
	}
	if counts[pipeline.StateParsed] != 2 || counts[pipeline.StateImported] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestFamilyGamesOrdered(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.AddFamily(ctx, &catalog.Family{ID: "catan", Name: "Catan"}); err != nil {
		t.Fatalf("AddFamily failed: %v", err)
	}
	for _, g := range []struct {
		name string
		pos  int
	}{{"Seafarers", 2}, {"Base", 0}, {"Cities", 1}} {
		if _, err := store.AddGame(ctx, &catalog.Game{Name: g.name, FamilyID: "catan", FamilyPosition: g.pos}); err != nil {
			t.Fatalf("AddGame failed: %v", err)
		}
	}

	games, err := store.FamilyGames(ctx, "catan")
	if err != nil {
		t.Fatalf("FamilyGames failed: %v", err)
	}
	want := []string{"Base", "Cities", "Seafarers"}
	for i, game := range games {
		if game.Name != want[i] {
			t.Fatalf("position %d: got %s want %s", i, game.Name, want[i])
		}
	}

	family, err := store.GetFamily(ctx, "catan")
	if err != nil {
		t.Fatalf("GetFamily failed: %v", err)
	}
	if family.GameCount != 3 {
		t.Fatalf("game count = %d", family.GameCount)
	}
	if _, err := store.GetFamily(ctx, "nope"); !errors.Is(err, catalog.ErrFamilyNotFound) {
		t.Fatalf("expected ErrFamilyNotFound, got %v", err)
	}
}

func TestStaleInFlightAndReclaim(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	parsing := testsupport.NewGame(t, store, "Parsing", pipeline.StateRulebookReady)
	if _, err := store.CompareAndSetState(ctx, parsing.ID, pipeline.StateRulebookReady, pipeline.StateParsing, ""); err != nil {
		t.Fatalf("enter parsing: %v", err)
	}
	regen := testsupport.NewGame(t, store, "Regen", pipeline.StateReviewPending)
	if _, err := store.CompareAndSetState(ctx, regen.ID, pipeline.StateReviewPending, pipeline.StateGenerating, ""); err != nil {
		t.Fatalf("enter generating: %v", err)
	}
	testsupport.NewGame(t, store, "Stable", pipeline.StateParsed)

	none, err := store.StaleInFlight(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("StaleInFlight failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no stale games with old cutoff, got %d", len(none))
	}

	cutoff := time.Now().Add(time.Minute)
	stale, err := store.StaleInFlight(ctx, cutoff)
	if err != nil {
		t.Fatalf("StaleInFlight failed: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale games, got %d", len(stale))
	}

	skipped, err := store.ReclaimStale(ctx, cutoff, func(*catalog.Game) bool { return true })
	if err != nil {
		t.Fatalf("ReclaimStale with skip failed: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected skip func to prevent reclaim, got %d", len(skipped))
	}

	reclaimed, err := store.ReclaimStale(ctx, cutoff, nil)
	if err != nil {
		t.Fatalf("ReclaimStale failed: %v", err)
	}
	if len(reclaimed) != 2 {
		t.Fatalf("expected 2 reclaimed, got %d", len(reclaimed))
	}
	got := map[string]*catalog.Game{}
	for _, game := range reclaimed {
		got[game.ID] = game
	}
	if got[parsing.ID].State != pipeline.StateRulebookReady {
		t.Fatalf("parsing game reclaimed to %s", got[parsing.ID].State)
	}
	if got[regen.ID].State != pipeline.StateReviewPending {
		t.Fatalf("regenerating game reclaimed to %s", got[regen.ID].State)
	}
	if got[parsing.ID].Error != catalog.StaleReclaimMessage {
		t.Fatalf("error = %q", got[parsing.ID].Error)
	}
}

func TestContentAndRulebookParse(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	game := testsupport.NewGame(t, store, "Brass", pipeline.StateGenerating)

	if parse, err := store.RulebookParseFor(ctx, game.ID); err != nil || parse != nil {
		t.Fatalf("expected no parse yet, got %+v %v", parse, err)
	}
	if err := store.SaveRulebookParse(ctx, catalog.RulebookParse{GameID: game.ID, TextChars: 5000, PageCount: 12, Complexity: 3.5}); err != nil {
		t.Fatalf("SaveRulebookParse failed: %v", err)
	}
	parse, err := store.RulebookParseFor(ctx, game.ID)
	if err != nil || parse == nil {
		t.Fatalf("RulebookParseFor: %+v %v", parse, err)
	}
	if parse.PageCount != 12 || parse.Complexity != 3.5 {
		t.Fatalf("unexpected parse: %+v", parse)
	}

	for _, ct := range []string{"strategy", "overview"} {
		if err := store.SaveContent(ctx, catalog.Content{GameID: game.ID, ContentType: ct, Body: "body " + ct, Model: "m"}); err != nil {
			t.Fatalf("SaveContent failed: %v", err)
		}
	}
	if err := store.SaveContent(ctx, catalog.Content{GameID: game.ID, ContentType: "overview", Body: "rewritten"}); err != nil {
		t.Fatalf("SaveContent overwrite failed: %v", err)
	}
	content, err := store.ContentFor(ctx, game.ID)
	if err != nil {
		t.Fatalf("ContentFor failed: %v", err)
	}
	if len(content) != 2 || content[0].ContentType != "overview" || content[0].Body != "rewritten" {
		t.Fatalf("unexpected content: %+v", content)
	}
	refreshed, err := store.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if !refreshed.HasContent {
		t.Fatal("expected has_content after SaveContent")
	}
}

func TestSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	path := store.Path()
	store.Close()

	raw, err := catalog.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := raw.SetSchemaVersionForTest(context.Background(), 99); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	raw.Close()

	if _, err := catalog.OpenPath(path); !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
