package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// IssueCodeRequest is the POST /verification/codes body.
type IssueCodeRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// IssueCodeResponse identifies the issued challenge.
type IssueCodeResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifyCodeRequest is the POST /verification/codes/{id}/verify body.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

// IssueCode handles POST /verification/codes.
func (s *Server) IssueCode(w http.ResponseWriter, r *http.Request) {
	var req IssueCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ch, err := s.svc.Verification.Issue(r.Context(), req.Email, req.Purpose)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, IssueCodeResponse{ID: ch.ID(), ExpiresAt: ch.ExpiresAt().UTC()})
}

// VerifyCode handles POST /verification/codes/{id}/verify.
func (s *Server) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.svc.Verification.Verify(r.Context(), chi.URLParam(r, "id"), req.Code); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
