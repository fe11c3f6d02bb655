package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vecna/internal/pipeline"
)

// GET /api/health
func (s *Server) health(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

// GET /api/states
func (s *Server) listStates(c *gin.Context) {
	respondOK(c, gin.H{"states": StateCatalog()})
}

// GET /api/stats
func (s *Server) stats(c *gin.Context) {
	counts, err := s.deps.Games.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	respondOK(c, gin.H{"counts": counts})
}

// GET /api/games?state=parsed,generated
func (s *Server) listGames(c *gin.Context) {
	states, err := ParseStates(c.QueryArray("state"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unknown_state", err)
		return
	}
	games, err := s.deps.Games.List(c.Request.Context(), states...)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	respondOK(c, gin.H{"games": games})
}

// GET /api/games/:id
func (s *Server) getGame(c *gin.Context) {
	detail, err := s.deps.Games.Describe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWriteError(c, nil, err)
		return
	}
	respondOK(c, detail)
}

// GET /api/games/:id/transitions
func (s *Server) getTransitions(c *gin.Context) {
	resp, err := s.deps.Games.Transitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWriteError(c, nil, err)
		return
	}
	respondOK(c, resp)
}

// POST /api/games/:id/advance
func (s *Server) advanceGame(c *gin.Context) {
	if s.deps.Advancer == nil {
		respondError(c, http.StatusServiceUnavailable, "advancer_unavailable", errors.New("advancer not configured"))
		return
	}
	var req AdvanceRequest
	if !bindBody(c, &req) {
		return
	}
	target := pipeline.State(strings.ToLower(strings.TrimSpace(req.Target)))
	game, err := s.deps.Advancer.Advance(c.Request.Context(), c.Param("id"), target)
	if err != nil {
		respondWriteError(c, game, err)
		return
	}
	respondOK(c, gin.H{"game": FromGame(game)})
}

// POST /api/games/:id/override
func (s *Server) overrideGame(c *gin.Context) {
	if s.deps.Advancer == nil {
		respondError(c, http.StatusServiceUnavailable, "advancer_unavailable", errors.New("advancer not configured"))
		return
	}
	var req OverrideRequest
	if !bindBody(c, &req) {
		return
	}
	target := pipeline.State(strings.ToLower(strings.TrimSpace(req.Target)))
	game, err := s.deps.Advancer.Override(c.Request.Context(), c.Param("id"), target, req.Note)
	if err != nil {
		respondWriteError(c, game, err)
		return
	}
	respondOK(c, gin.H{"game": FromGame(game)})
}

// GET /api/families
func (s *Server) listFamilies(c *gin.Context) {
	families, err := s.deps.Games.Families(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	respondOK(c, gin.H{"families": families})
}

// GET /api/families/:id
func (s *Server) getFamily(c *gin.Context) {
	detail, err := s.deps.Games.Family(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWriteError(c, nil, err)
		return
	}
	respondOK(c, detail)
}

// POST /api/families/:id/process
func (s *Server) processFamily(c *gin.Context) {
	if s.deps.Orchestrator == nil {
		respondError(c, http.StatusServiceUnavailable, "orchestrator_unavailable", errors.New("orchestrator not configured"))
		return
	}
	var req ProcessRequest
	if !bindBody(c, &req) {
		return
	}
	modeValue := req.Mode
	if strings.TrimSpace(modeValue) == "" {
		modeValue = string(pipeline.ModeFromCurrent)
	}
	mode, err := pipeline.ParseMode(modeValue)
	if err != nil {
		respondError(c, http.StatusBadRequest, "unknown_mode", err)
		return
	}

	familyID := c.Param("id")
	if _, err := s.deps.Games.Family(c.Request.Context(), familyID); err != nil {
		respondWriteError(c, nil, err)
		return
	}

	opts := s.deps.Defaults
	if req.SkipBlocked != nil {
		opts.SkipBlocked = *req.SkipBlocked
	}
	if req.StopOnError != nil {
		opts.StopOnError = *req.StopOnError
	}
	summary, err := s.deps.Orchestrator.ProcessFamilyByID(c.Request.Context(), familyID, mode, opts)
	if err != nil {
		respondWriteError(c, nil, err)
		return
	}
	respondOK(c, FromBatchSummary(summary))
}

// POST /api/reclaim
func (s *Server) reclaim(c *gin.Context) {
	if s.deps.Reclaimer == nil {
		respondError(c, http.StatusServiceUnavailable, "reclaimer_unavailable", errors.New("reclaimer not configured"))
		return
	}
	games, err := s.deps.Reclaimer.ReclaimOnce(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "reclaim_failed", err)
		return
	}
	respondOK(c, ReclaimResponse{Count: len(games), Games: FromGames(games)})
}

// bindBody decodes a JSON body. An empty body leaves dst at its zero value.
func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}
