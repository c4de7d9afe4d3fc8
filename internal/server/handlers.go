package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/engine"
	"github.com/jonathan/resume-guard/internal/schemas"
	"github.com/jonathan/resume-guard/internal/types"
)

// handleScore scores a resume against a job description.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req types.ScoreRequest
	if !s.decodeWith(w, r, &req, documentField) {
		return
	}
	report, err := s.engine.Score(r.Context(), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleCreateResume imports a resume as version 1.
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	var req types.CreateResumeRequest
	if !s.decodeWith(w, r, &req, documentField) {
		return
	}
	doc, err := s.engine.CreateResume(r.Context(), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, doc)
}

// handleGetResume returns the latest version, or ?version=N.
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	version, ok := s.versionParam(w, r)
	if !ok {
		return
	}
	doc, err := s.engine.GetResume(r.Context(), r.PathValue("resume_id"), version)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleResumeHistory lists every version of a resume.
func (s *Server) handleResumeHistory(w http.ResponseWriter, r *http.Request) {
	resumeID := r.PathValue("resume_id")
	history, err := s.engine.ResumeHistory(r.Context(), resumeID)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"resume_id": resumeID,
		"versions":  history,
	})
}

// handleResumeText renders a version as plain text.
func (s *Server) handleResumeText(w http.ResponseWriter, r *http.Request) {
	version, ok := s.versionParam(w, r)
	if !ok {
		return
	}
	text, err := s.engine.ResumeText(r.Context(), r.PathValue("resume_id"), version)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req types.SuggestRequest
	if !s.decode(w, r, &req, "") {
		return
	}
	req.ResumeID = r.PathValue("resume_id")
	resp, err := s.engine.Suggest(r.Context(), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleBlockedPlan(w http.ResponseWriter, r *http.Request) {
	var req types.BlockedPlanRequest
	if !s.decode(w, r, &req, "") {
		return
	}
	req.ResumeID = r.PathValue("resume_id")
	resp, err := s.engine.BlockedPlan(r.Context(), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleApply commits a patch batch. The body is checked against the patch
// batch schema before it is decoded.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req types.ApplyRequest
	if !s.decode(w, r, &req, schemas.PatchBatch) {
		return
	}
	req.ResumeID = r.PathValue("resume_id")
	resp, err := s.engine.Apply(r.Context(), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleIncludeSkills(w http.ResponseWriter, r *http.Request) {
	var req types.IncludeSkillsRequest
	if !s.decode(w, r, &req, "") {
		return
	}
	req.ResumeID = r.PathValue("resume_id")
	resp, err := s.engine.IncludeSkills(r.Context(), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleRewriteBullet(w http.ResponseWriter, r *http.Request) {
	var req types.RewriteBulletRequest
	if !s.decode(w, r, &req, "") {
		return
	}
	req.ResumeID = r.PathValue("resume_id")
	resp, err := s.engine.RewriteBullet(r.Context(), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.ListOverrides(r.Context(), r.PathValue("resume_id"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleAddOverrides(w http.ResponseWriter, r *http.Request) {
	var req types.OverridesRequest
	if !s.decode(w, r, &req, schemas.OverrideBatch) {
		return
	}
	resp, err := s.engine.AddOverrides(r.Context(), r.PathValue("resume_id"), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

func (s *Server) handleOverridesFromBlocked(w http.ResponseWriter, r *http.Request) {
	var req types.OverridesFromBlockedRequest
	if !s.decode(w, r, &req, "") {
		return
	}
	resp, err := s.engine.OverridesFromBlocked(r.Context(), r.PathValue("resume_id"), req)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// decode reads the body into dst, first validating it against schema when
// one is named. It writes a 400 and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, schema string) bool {
	if schema == "" {
		return s.decodeWith(w, r, dst, nil)
	}
	return s.decodeWith(w, r, dst, func(body []byte) error {
		return schemas.Validate(schema, body)
	})
}

func (s *Server) decodeWith(w http.ResponseWriter, r *http.Request, dst any, check func(body []byte) error) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if check != nil {
		if err := check(body); err != nil {
			s.schemaError(w, err)
			return false
		}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// documentField validates an inline "document" against the resume document
// schema. Bodies that are not JSON objects are left to the decoder.
func documentField(body []byte) error {
	var envelope struct {
		Document json.RawMessage `json:"document"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if len(envelope.Document) == 0 || string(envelope.Document) == "null" {
		return nil
	}
	return schemas.Validate(schemas.ResumeDocument, envelope.Document)
}

func (s *Server) schemaError(w http.ResponseWriter, err error) {
	var ve *schemas.ValidationError
	if !errors.As(err, &ve) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	fields := make([]map[string]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, map[string]string{"field": fe.Field, "message": fe.Message})
	}
	s.jsonResponse(w, http.StatusBadRequest, map[string]any{
		"error":  "request does not match schema " + ve.Schema,
		"fields": fields,
	})
}

// versionParam parses ?version=; absent means 0 (latest).
func (s *Server) versionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return 0, true
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid version %q", raw))
		return 0, false
	}
	return version, true
}

// engineError maps an engine error to its status and writes it.
func (s *Server) engineError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error",
			zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}

	var ambiguous *engine.AmbiguousRoleError
	if errors.As(err, &ambiguous) {
		s.jsonResponse(w, status, map[string]any{
			"error":    "multiple roles matched",
			"role_ids": ambiguous.RoleIDs,
		})
		return
	}
	s.errorResponse(w, status, err.Error())
}
