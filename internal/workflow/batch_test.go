package workflow

import (
	"context"
	"errors"
	"testing"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
	"vecna/internal/testsupport"
)

func familyOfFive(t *testing.T, h *harness) []*catalog.Game {
	t.Helper()
	return testsupport.NewFamily(t, h.store, "catan",
		testsupport.GameSpec{ID: "g1", Name: "Base", State: pipeline.StateImported},
		testsupport.GameSpec{ID: "g2", Name: "Seafarers", State: pipeline.StateRulebookMissing},
		testsupport.GameSpec{ID: "g3", Name: "Cities", State: pipeline.StateTaxonomyAssigned},
		testsupport.GameSpec{ID: "g4", Name: "Traders", State: pipeline.StateRulebookMissing},
		testsupport.GameSpec{ID: "g5", Name: "Explorers", State: pipeline.StateGenerated},
	)
}

func TestProcessFamilySkipBlocked(t *testing.T) {
	h := newHarness(t)
	games := familyOfFive(t, h)

	summary, err := h.batch.ProcessFamily(context.Background(), games, pipeline.ModeFromCurrent, Options{SkipBlocked: true})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	want := Summary{Total: 5, Processed: 3, Skipped: 2, Errors: 0}
	if summary.Summary != want {
		t.Fatalf("summary = %+v, want %+v", summary.Summary, want)
	}
	if summary.RequestID == "" {
		t.Fatal("expected request id")
	}
	for i, result := range summary.Results {
		if result.GameID != games[i].ID {
			t.Fatalf("result %d is %s, want %s", i, result.GameID, games[i].ID)
		}
	}
	skipped := summary.Results[1]
	if !skipped.Skipped || skipped.SkipReason == "" {
		t.Fatalf("expected skipped result with reason, got %+v", skipped)
	}
	if got := h.reload(t, "g2").State; got != pipeline.StateRulebookMissing {
		t.Fatalf("skipped game was mutated to %s", got)
	}
	first := summary.Results[0]
	if first.PreviousState != pipeline.StateImported || first.NewState != pipeline.StateEnriched || !first.Success {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if h.generator.callCount() != 1 {
		t.Fatalf("expected one generate call, got %d", h.generator.callCount())
	}
}

func TestProcessFamilyStopOnError(t *testing.T) {
	h := newHarness(t)
	games := familyOfFive(t, h)
	h.generator.fn = func(context.Context, *catalog.Game) error { panic("generator crashed") }

	summary, err := h.batch.ProcessFamily(context.Background(), games, pipeline.ModeFromCurrent, Options{SkipBlocked: true, StopOnError: true})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(summary.Results))
	}
	third := summary.Results[2]
	if third.Success || third.ErrorKind != "collaborator_failed" {
		t.Fatalf("unexpected third result: %+v", third)
	}
	if third.NewState != pipeline.StateTaxonomyAssigned {
		t.Fatalf("third game should be rolled back, got %s", third.NewState)
	}
	if !summary.Stopped || len(summary.NotAttempted) != 2 || summary.NotAttempted[0] != "g4" {
		t.Fatalf("unexpected stop detail: stopped=%v not_attempted=%v", summary.Stopped, summary.NotAttempted)
	}
	s := summary.Summary
	if s.Processed+s.Skipped+s.Errors >= s.Total {
		t.Fatalf("expected short count after stop, got %+v", s)
	}
	if got := h.reload(t, "g5").State; got != pipeline.StateGenerated {
		t.Fatalf("unattempted game mutated to %s", got)
	}
}

func TestProcessFamilyWithoutSkipBlockedCountsErrors(t *testing.T) {
	h := newHarness(t)
	games := familyOfFive(t, h)

	summary, err := h.batch.ProcessFamily(context.Background(), games, pipeline.ModeFromCurrent, Options{})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	want := Summary{Total: 5, Processed: 3, Skipped: 0, Errors: 2}
	if summary.Summary != want {
		t.Fatalf("summary = %+v, want %+v", summary.Summary, want)
	}
	if kind := summary.Results[1].ErrorKind; kind != "guard_rejected" {
		t.Fatalf("error kind = %q", kind)
	}
	s := summary.Summary
	if s.Processed+s.Skipped+s.Errors != s.Total {
		t.Fatalf("counts must cover every game when not stopping: %+v", s)
	}
}

func TestProcessFamilyNoImpliedTarget(t *testing.T) {
	h := newHarness(t)
	games := testsupport.NewFamily(t, h.store, "done",
		testsupport.GameSpec{ID: "p1", Name: "Published", State: pipeline.StatePublished},
	)

	skipped, err := h.batch.ProcessFamily(context.Background(), games, pipeline.ModeFromCurrent, Options{SkipBlocked: true})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	if r := skipped.Results[0]; !r.Skipped || r.SkipReason != "no rule for published->unspecified" {
		t.Fatalf("unexpected skip: %+v", r)
	}

	errored, err := h.batch.ProcessFamily(context.Background(), games, pipeline.ModeFromCurrent, Options{})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	if r := errored.Results[0]; r.Success || r.ErrorKind != "guard_rejected" {
		t.Fatalf("unexpected error result: %+v", r)
	}
}

func TestProcessFamilyFullModeChains(t *testing.T) {
	h := newHarness(t)
	games := testsupport.NewFamily(t, h.store, "chain",
		testsupport.GameSpec{ID: "c1", Name: "With Book", State: pipeline.StateImported, RulebookURL: "/rules.pdf"},
		testsupport.GameSpec{ID: "c2", Name: "No Book", State: pipeline.StateImported},
	)

	summary, err := h.batch.ProcessFamily(context.Background(), games, pipeline.ModeFull, Options{SkipBlocked: true})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	withBook := summary.Results[0]
	if !withBook.Success || withBook.NewState != pipeline.StateGenerated || withBook.Steps != 5 {
		t.Fatalf("unexpected chained result: %+v", withBook)
	}
	noBook := summary.Results[1]
	if !noBook.Success || noBook.NewState != pipeline.StateRulebookMissing {
		t.Fatalf("chain should stop where the guard blocks: %+v", noBook)
	}
	if h.parser.callCount() != 1 || h.generator.callCount() != 1 {
		t.Fatalf("calls: parse=%d generate=%d", h.parser.callCount(), h.generator.callCount())
	}
}

func TestProcessFamilyModesBoundSteps(t *testing.T) {
	cases := []struct {
		mode  pipeline.Mode
		start pipeline.State
		want  pipeline.State
	}{
		{pipeline.ModeParseOnly, pipeline.StateRulebookReady, pipeline.StateParsed},
		{pipeline.ModeGenerateOnly, pipeline.StateParsed, pipeline.StateGenerated},
		{pipeline.ModeGenerateOnly, pipeline.StateReviewPending, pipeline.StateGenerated},
		{pipeline.ModeFromCurrent, pipeline.StateRulebookReady, pipeline.StateParsed},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode)+"/"+string(tc.start), func(t *testing.T) {
			h := newHarness(t)
			games := testsupport.NewFamily(t, h.store, "f", testsupport.GameSpec{Name: "G", State: tc.start, HasRulebook: true})
			summary, err := h.batch.ProcessFamily(context.Background(), games, tc.mode, Options{})
			if err != nil {
				t.Fatalf("ProcessFamily: %v", err)
			}
			if got := summary.Results[0].NewState; got != tc.want {
				t.Fatalf("new state = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestProcessFamilyChainFailureReportsRollback(t *testing.T) {
	h := newHarness(t)
	games := testsupport.NewFamily(t, h.store, "fail",
		testsupport.GameSpec{ID: "x", Name: "X", State: pipeline.StateRulebookReady},
	)
	h.generator.fn = func(context.Context, *catalog.Game) error { return errors.New("quota exceeded") }

	summary, err := h.batch.ProcessFamily(context.Background(), games, pipeline.ModeFull, Options{})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	r := summary.Results[0]
	if r.Success || r.Error != "quota exceeded" || r.PreviousState != pipeline.StateRulebookReady || r.NewState != pipeline.StateTaxonomyAssigned {
		t.Fatalf("unexpected result: %+v", r)
	}
	if summary.Summary.Errors != 1 {
		t.Fatalf("summary = %+v", summary.Summary)
	}
}

func TestProcessFamilyByIDAndCancellation(t *testing.T) {
	h := newHarness(t)
	familyOfFive(t, h)

	games, err := h.store.FamilyGames(context.Background(), "catan")
	if err != nil {
		t.Fatalf("FamilyGames: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := h.batch.ProcessFamily(ctx, games, pipeline.ModeFromCurrent, Options{SkipBlocked: true})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	if !summary.Stopped || len(summary.Results) != 0 || len(summary.NotAttempted) != 5 {
		t.Fatalf("unexpected cancelled summary: %+v", summary)
	}

	summary, err = h.batch.ProcessFamilyByID(context.Background(), "catan", pipeline.ModeFromCurrent, Options{SkipBlocked: true})
	if err != nil {
		t.Fatalf("ProcessFamilyByID: %v", err)
	}
	if summary.Summary.Total != 5 || summary.Summary.Processed != 3 {
		t.Fatalf("summary = %+v", summary.Summary)
	}
}

func TestProcessFamilyRejectsUnknownMode(t *testing.T) {
	h := newHarness(t)
	if _, err := h.batch.ProcessFamily(context.Background(), nil, pipeline.Mode("everything"), Options{}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestProcessFamilyRecordsNilEntryAsError(t *testing.T) {
	h := newHarness(t)
	games := familyOfFive(t, h)
	input := []*catalog.Game{games[0], nil, games[2]}

	summary, err := h.batch.ProcessFamily(context.Background(), input, pipeline.ModeFromCurrent, Options{})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	want := Summary{Total: 3, Processed: 2, Skipped: 0, Errors: 1}
	if summary.Summary != want {
		t.Fatalf("summary = %+v, want %+v", summary.Summary, want)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(summary.Results))
	}
	missing := summary.Results[1]
	if missing.Success || missing.Skipped || missing.Error != "missing game entry at position 1" {
		t.Fatalf("unexpected result for nil entry: %+v", missing)
	}
	if summary.Results[2].GameID != "g3" || !summary.Results[2].Success {
		t.Fatalf("game after nil entry not processed: %+v", summary.Results[2])
	}

	stopped, err := h.batch.ProcessFamily(context.Background(), []*catalog.Game{nil, games[1]}, pipeline.ModeFromCurrent, Options{StopOnError: true})
	if err != nil {
		t.Fatalf("ProcessFamily: %v", err)
	}
	if !stopped.Stopped || len(stopped.Results) != 1 || len(stopped.NotAttempted) != 1 || stopped.NotAttempted[0] != "g2" {
		t.Fatalf("unexpected stop-on-error summary: %+v", stopped)
	}
}
