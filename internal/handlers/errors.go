package handlers

import (
	"errors"
	"net/http"

	"DF-PROPOSAL/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperr.ErrImmutableDocument, http.StatusConflict, "immutable_document"},
	{apperr.ErrLockedSection, http.StatusConflict, "locked_section"},
	{apperr.ErrAlreadyResponded, http.StatusConflict, "already_responded"},
	{apperr.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{apperr.ErrExpiredDocument, http.StatusGone, "expired"},
	{apperr.ErrEmptyDocument, http.StatusUnprocessableEntity, "empty_document"},
}

// respondError maps a service error onto its HTTP status and error body.
func respondError(c *gin.Context, err error) {
	if v, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: "Some fields are invalid",
			Details: v.Fields,
		})
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.target) {
			c.JSON(e.status, ErrorResponse{Error: e.code, Message: e.target.Error()})
			return
		}
	}

	log.Error().Err(err).Str("route", c.FullPath()).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Something went wrong"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: message})
}

// bindJSON decodes the body into dst, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid JSON body")
		return false
	}
	return true
}
