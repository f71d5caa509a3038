package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/readmission-guard/internal/errors"
	"github.com/ZanzyTHEbar/readmission-guard/internal/frontend"
	"github.com/ZanzyTHEbar/readmission-guard/internal/privacy"
	"github.com/ZanzyTHEbar/readmission-guard/internal/security"
	"github.com/ZanzyTHEbar/readmission-guard/internal/session"
)

// SessionCookie carries the dashboard session ID
const SessionCookie = "rg_session"

// dashboardSession returns the caller's session, starting one when the
// cookie is absent or stale. The cookie lifetime slides with the session.
func (s *Server) dashboardSession(c *gin.Context) *session.Session {
	id, _ := c.Cookie(SessionCookie)
	sess, created := s.sessions.GetOrCreate(id)
	if created {
		s.logger.Debug("Dashboard session started", "session_id", privacy.LogID(sess.ID()))
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID(), int(s.opts.SessionTTL.Seconds()), "/", "", false, true)
	return sess
}

func (s *Server) renderDashboard(c *gin.Context, status int, sess *session.Session, formErr string) {
	view := frontend.NewDashboardView(sess.Snapshot(), security.GetNonce(c), s.modelName)
	view.FormError = formErr

	if err := s.pages.RenderDashboard(c, status, view); err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to render page", err))
	}
}

func (s *Server) dashboard(c *gin.Context) {
	s.renderDashboard(c, http.StatusOK, s.dashboardSession(c), "")
}

// bindForm applies the submitted form to the session. It reports false after
// rendering the form error itself.
func (s *Server) bindForm(c *gin.Context, sess *session.Session) bool {
	var in analysis.Inputs
	if err := c.ShouldBind(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderDashboard(c, http.StatusRequestEntityTooLarge, sess, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		s.renderDashboard(c, http.StatusBadRequest, sess, "invalid form: "+err.Error())
		return false
	}

	if _, err := sess.SetInputs(in); err != nil {
		s.renderDashboard(c, http.StatusBadRequest, sess, err.Error())
		return false
	}
	return true
}

// updateInputs stores changed widget values. Any change hides the previous
// result until the clinician analyzes again.
func (s *Server) updateInputs(c *gin.Context) {
	sess := s.dashboardSession(c)
	if !s.bindForm(c, sess) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// analyzePage stores the submitted values and analyzes them
func (s *Server) analyzePage(c *gin.Context) {
	sess := s.dashboardSession(c)
	if !s.bindForm(c, sess) {
		return
	}

	// On failure the session keeps the error and the page shows it.
	res, err := sess.Analyze(s.runFor(c))
	if err != nil {
		apperrors.LogError(c, apperrors.ToAppError(err))
	} else {
		s.logAnalysis(sess.ID(), res)
	}

	c.Redirect(http.StatusSeeOther, "/")
}
