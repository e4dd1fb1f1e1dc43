package dashboard

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/codefox-dev/codefox/internal/common/apperrors"
	"github.com/codefox-dev/codefox/internal/common/httpx"
	"github.com/codefox-dev/codefox/internal/history"
)

// listHistoryRsp is the response for history listing requests.
type listHistoryRsp struct {
	Records  []*history.Record `json:"records"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// listHistory returns a page of execution records, newest first. Supported
// query parameters: page, page_size, sender, q (keyword), success.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httpx.ErrApplicationError("history database not configured").Send(w)
		return
	}

	q := r.URL.Query()
	filter := history.ListFilter{
		SenderID: q.Get("sender"),
		Keyword:  q.Get("q"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	if v := q.Get("success"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			httpx.ErrInvalidRequest("invalid success filter").Send(w)
			return
		}
		filter.Success = &ok
	}

	records, total, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.sendStoreError(r, w, err)
		return
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, &listHistoryRsp{
		Records:  records,
		Total:    total,
		Page:     filter.Page,
		PageSize: len(records),
	})
}

// getDetail returns one execution record by id.
func (s *Server) getDetail(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httpx.ErrApplicationError("history database not configured").Send(w)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ErrInvalidRequest("invalid record id").Send(w)
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.sendStoreError(r, w, err)
		return
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rec)
}

// getStatistics returns aggregate execution statistics.
func (s *Server) getStatistics(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httpx.ErrApplicationError("history database not configured").Send(w)
		return
	}

	st, err := s.store.Statistics(r.Context())
	if err != nil {
		s.sendStoreError(r, w, err)
		return
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, st)
}

// serveFile serves one produced file from the output directory. Requests
// resolving outside the output directory are denied.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	if !s.fileServing {
		httpx.ErrForbidden("file serving is disabled").Send(w)
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		httpx.ErrInvalidRequest("file name is required").Send(w)
		return
	}

	full := filepath.Join(s.outputDir, filepath.Clean("/"+name))
	rel, err := filepath.Rel(s.outputDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		httpx.ErrForbidden().Send(w)
		return
	}

	http.ServeFile(w, r, full)
}

// getVersionRsp is the response for version information requests.
type getVersionRsp struct {
	ServerVersion string `json:"server_version"`
	ApiVersion    string `json:"api_version"`
	Compatible    *bool  `json:"compatible,omitempty"`
}

// getVersion returns server and API version information. When the request
// carries a client version, the response reports compatibility with it.
func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &getVersionRsp{
		ServerVersion: "Codefox Dashboard: " + Version,
		ApiVersion:    Version,
	}
	if cv := r.URL.Query().Get("client_version"); cv != "" {
		ok := IsVersionCompatible(cv)
		rsp.Compatible = &ok
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

// getReadiness handles health check requests.
func (s *Server) getReadiness(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("Readiness check")
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// getIndex serves the dashboard page.
func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexPage)
}

func (s *Server) sendStoreError(r *http.Request, w http.ResponseWriter, err error) {
	log.Ctx(r.Context()).Error().Err(err).Msg("history store error")
	var appErr apperrors.Error
	if errors.As(err, &appErr) {
		httpx.SendError(w, appErr)
		return
	}
	httpx.ErrApplicationError().Send(w)
}
