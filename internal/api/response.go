package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
	"vecna/internal/workflow"
)

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondWriteError maps workflow and catalog errors to HTTP statuses. game
// is included when the failed call still left a stored row worth showing.
func respondWriteError(c *gin.Context, game *catalog.Game, err error) {
	status, code := classify(err)
	env := ErrorEnvelope{Error: APIError{Message: err.Error(), Code: code}}
	if game != nil {
		g := FromGame(game)
		env.Game = &g
	}
	c.JSON(status, env)
}

func classify(err error) (int, string) {
	var collab *pipeline.CollaboratorFailedError
	switch {
	case errors.Is(err, catalog.ErrGameNotFound):
		return http.StatusNotFound, "game_not_found"
	case errors.Is(err, catalog.ErrFamilyNotFound):
		return http.StatusNotFound, "family_not_found"
	case errors.Is(err, ErrUnknownState):
		return http.StatusBadRequest, "unknown_state"
	case errors.Is(err, pipeline.ErrGuardRejected):
		return http.StatusConflict, "guard_rejected"
	case errors.Is(err, workflow.ErrGameBusy):
		return http.StatusConflict, "game_busy"
	case errors.Is(err, catalog.ErrStateConflict):
		return http.StatusConflict, "state_conflict"
	case errors.As(err, &collab):
		return http.StatusBadGateway, "collaborator_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
