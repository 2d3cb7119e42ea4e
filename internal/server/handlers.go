package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/runnerr0/guestbook/internal/filter"
	"github.com/runnerr0/guestbook/internal/reconcile"
	"github.com/runnerr0/guestbook/internal/visit"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) schema(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Schema())
}

func (s *Server) submitVisit(c *gin.Context) {
	var sub visit.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		writeError(c, &badRequest{msg: "invalid request body: " + err.Error()})
		return
	}

	e, err := s.svc.SubmitVisit(c.Request.Context(), sub)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &badRequest{msg: "invalid request body: " + err.Error()})
		return
	}

	sess, token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.cookie, token, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"username":   sess.Username,
		"expires_at": sess.ExpiresAt,
	})
}

func (s *Server) logout(c *gin.Context) {
	s.auth.Logout(session(c))
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(s.cookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// viewFilter resolves the filter of an admin read. Without explicit dates
// the range is the full span of the log.
func (s *Server) viewFilter(c *gin.Context) (filter.Spec, error) {
	body := filterFromQuery(c)
	spec, err := body.spec(s.svc.Schema())
	if err != nil {
		return filter.Spec{}, err
	}
	if body.Start == "" && body.End == "" {
		def, err := s.svc.DefaultFilter(c.Request.Context(), session(c))
		if err != nil {
			return filter.Spec{}, err
		}
		spec.Start, spec.End = def.Start, def.End
	}
	return spec, nil
}

type visitsResponse struct {
	Filter filterBody            `json:"filter"`
	Count  int                   `json:"count"`
	Rows   []reconcile.EditedRow `json:"rows"`
}

func (s *Server) listVisits(c *gin.Context) {
	spec, err := s.viewFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	rows, err := s.svc.GetFiltered(c.Request.Context(), session(c), spec)
	if err != nil {
		writeError(c, err)
		return
	}

	out := visitsResponse{Filter: toFilterBody(spec), Count: len(rows), Rows: make([]reconcile.EditedRow, 0, len(rows))}
	for _, e := range rows {
		out.Rows = append(out.Rows, reconcile.RowFor(e))
	}
	c.JSON(http.StatusOK, out)
}

type saveRequest struct {
	Filter   filterBody            `json:"filter"`
	Rows     []reconcile.EditedRow `json:"rows"`
	Baseline []string              `json:"baseline"`
}

func (s *Server) saveVisits(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &badRequest{msg: "invalid request body: " + err.Error()})
		return
	}
	spec, err := req.Filter.spec(s.svc.Schema())
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := s.svc.SaveEdits(c.Request.Context(), session(c), reconcile.Request{
		Filter:   spec,
		Rows:     req.Rows,
		Baseline: req.Baseline,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) dashboard(c *gin.Context) {
	spec, err := s.viewFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	report, err := s.svc.Dashboard(c.Request.Context(), session(c), spec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filter": toFilterBody(spec), "report": report})
}

// export downloads the filtered view, or the full log with all=true.
func (s *Server) export(c *gin.Context) {
	var spec *filter.Spec
	if c.Query("all") != "true" {
		v, err := s.viewFilter(c)
		if err != nil {
			writeError(c, err)
			return
		}
		spec = &v
	}

	data, err := s.svc.Export(c.Request.Context(), session(c), spec)
	if err != nil {
		writeError(c, err)
		return
	}
	name := fmt.Sprintf("visits-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
