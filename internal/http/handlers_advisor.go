package http

import (
	"net/http"

	"carteira/internal/advisor"
	"carteira/internal/log"
)

type chatRequest struct {
	Message string            `json:"message"`
	History []advisor.Message `json:"history,omitempty"`
}

type textResponse struct {
	Text string `json:"text"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	// Image is a base64 data URL; only analyze reads it.
	Image string `json:"image,omitempty"`
}

type imageResponse struct {
	Image string `json:"image"`
}

// advisoryContext checks the advisor is configured and serializes the
// user's transactions for it.
func (s *Server) advisoryContext(w http.ResponseWriter, r *http.Request, op string) (string, bool) {
	user, err := ParseUser(r)
	if err != nil {
		writeError(w, r, op, err)
		return "", false
	}
	if s.advisor == nil {
		writeError(w, r, op, errAdvisorDisabled)
		return "", false
	}
	l, err := ParseLocale(r.URL.Query(), s.locale)
	if err != nil {
		writeError(w, r, op, err)
		return "", false
	}
	js, err := s.ledger.AdvisoryContext(r.Context(), user, l, s.location)
	if err != nil {
		writeError(w, r, op, err)
		return "", false
	}
	return js, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	contextJSON, ok := s.advisoryContext(w, r, log.OpChat)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		writeError(w, r, log.OpChat, err)
		return
	}
	reply, err := s.advisor.Chat(r.Context(), sanitizeInput(req.Message), req.History, contextJSON)
	if err != nil {
		writeError(w, r, log.OpChat, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: reply})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	contextJSON, ok := s.advisoryContext(w, r, log.OpHealth)
	if !ok {
		return
	}
	analysis, err := s.advisor.HealthCheck(r.Context(), contextJSON)
	if err != nil {
		writeError(w, r, log.OpHealth, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: analysis})
}

func (s *Server) decodeImageRequest(w http.ResponseWriter, r *http.Request) (imageRequest, bool) {
	var req imageRequest
	if _, err := ParseUser(r); err != nil {
		writeError(w, r, log.OpImage, err)
		return req, false
	}
	if s.advisor == nil {
		writeError(w, r, log.OpImage, errAdvisorDisabled)
		return req, false
	}
	if err := decodeJSON(w, r, maxMediaBody, &req); err != nil {
		writeError(w, r, log.OpImage, err)
		return req, false
	}
	req.Prompt = sanitizeInput(req.Prompt)
	return req, true
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeImageRequest(w, r)
	if !ok {
		return
	}
	dataURL, err := s.advisor.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, r, log.OpImage, err)
		return
	}
	writeJSON(w, http.StatusOK, imageResponse{Image: dataURL})
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeImageRequest(w, r)
	if !ok {
		return
	}
	analysis, err := s.advisor.AnalyzeImage(r.Context(), req.Image, req.Prompt)
	if err != nil {
		writeError(w, r, log.OpImage, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: analysis})
}
