package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/readmission-guard/internal/errors"
	"github.com/ZanzyTHEbar/readmission-guard/internal/types"
)

// bindError keeps an oversized body distinct from a malformed one
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.NewValidationError("Invalid request body", err.Error())
}

// schema godoc
// @Summary Describe intake fields
// @Description Returns the intake fields with their bounds and options, and the loaded model
// @Tags Schema
// @Produce json
// @Success 200 {object} types.SchemaResponse
// @Failure 503 {object} types.ErrorResponse
// @Router /schema [get]
func (s *Server) schema(c *gin.Context) {
	c.JSON(http.StatusOK, types.SchemaResponse{
		Fields:       analysis.Schema(),
		FeatureCount: s.features,
		Model:        s.modelName,
		EncodingMode: string(s.analyzer.Encoder().Mode()),
	})
}

// score godoc
// @Summary Score a patient
// @Description Validates, encodes, scores and explains one patient without creating a session
// @Tags Score
// @Accept json
// @Produce json
// @Param request body types.ScoreRequest true "Patient inputs"
// @Success 200 {object} types.ScoreResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 413 {object} types.ErrorResponse
// @Failure 415 {object} types.ErrorResponse
// @Failure 422 {object} types.ErrorResponse
// @Failure 429 {object} types.ErrorResponse
// @Failure 500 {object} types.ErrorResponse
// @Failure 503 {object} types.ErrorResponse
// @Failure 504 {object} types.ErrorResponse
// @Router /score [post]
func (s *Server) score(c *gin.Context) {
	var req types.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, bindError(err))
		return
	}

	res, err := s.runContext(c.Request.Context(), req.ToInputs())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	s.logAnalysis("", res)
	c.JSON(http.StatusOK, types.NewScoreResponse(res))
}

// createSession godoc
// @Summary Create session
// @Description Creates an idle dashboard session holding the default inputs
// @Tags Sessions
// @Produce json
// @Success 201 {object} types.SessionResponse
// @Failure 503 {object} types.ErrorResponse
// @Router /sessions [post]
func (s *Server) createSession(c *gin.Context) {
	sess := s.sessions.Create()
	c.JSON(http.StatusCreated, types.NewSessionResponse(sess.Snapshot()))
}

// getSession godoc
// @Summary Get session
// @Description Returns the session state and inputs. The result is present only while analyzed
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} types.SessionResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /sessions/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewSessionResponse(sess.Snapshot()))
}

// updateSessionInputs godoc
// @Summary Update inputs
// @Description Replaces the session inputs. Any changed value returns the session to idle
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body types.ScoreRequest true "Patient inputs"
// @Success 200 {object} types.SessionResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 413 {object} types.ErrorResponse
// @Failure 415 {object} types.ErrorResponse
// @Router /sessions/{id}/inputs [put]
func (s *Server) updateSessionInputs(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	var req types.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Abort(c, bindError(err))
		return
	}

	if _, err := sess.SetInputs(req.ToInputs()); err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, types.NewSessionResponse(sess.Snapshot()))
}

// analyzeSession godoc
// @Summary Analyze session
// @Description Analyzes the current inputs of a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} types.SessionResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 422 {object} types.ErrorResponse
// @Failure 429 {object} types.ErrorResponse
// @Failure 500 {object} types.ErrorResponse
// @Failure 503 {object} types.ErrorResponse
// @Failure 504 {object} types.ErrorResponse
// @Router /sessions/{id}/analyze [post]
func (s *Server) analyzeSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	res, err := sess.Analyze(s.runFor(c))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	s.logAnalysis(sess.ID(), res)
	c.JSON(http.StatusOK, types.NewSessionResponse(sess.Snapshot()))
}

// deleteSession godoc
// @Summary Delete session
// @Description Discards a session and its result
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} types.ErrorResponse
// @Router /sessions/{id} [delete]
func (s *Server) deleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
