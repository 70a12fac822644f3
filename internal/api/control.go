package api

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
)

// requireBearer rejects requests whose Authorization header is not
// "Bearer <control key>". The presented token is never echoed.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.controlKey == "" {
			writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		want := []byte("Bearer " + s.controlKey)
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// upsertUserBody is the wire form of an upsert request. id may be a number
// or a numeric string; missing, null, "" and 0 select the upsert by email.
type upsertUserBody struct {
	ID       json.RawMessage `json:"id"`
	Email    string          `json:"email"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Password string          `json:"password"`
	TimeZone string          `json:"timezone"`
	FQDN     string          `json:"fqdn"`
}

func parseFlexibleID(raw json.RawMessage) (*int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
	} else {
		s = string(raw)
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: "id", Message: service.MsgInvalidInput}
	}
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}

// handleUpsertUser provisions a user by id or by email.
func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var body upsertUserBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)
		return
	}

	id, err := parseFlexibleID(body.ID)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}

	res, err := s.controlSvc.UpsertUser(r.Context(), service.UpsertUserRequest{
		ID:       id,
		Email:    body.Email,
		Username: body.Username,
		Name:     body.Name,
		Password: body.Password,
		TimeZone: body.TimeZone,
		FQDN:     body.FQDN,
	})
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type emailBody struct {
	Email string `json:"email"`
}

// handleToggleAway flips the away flag of the user with the given email.
func (s *Server) handleToggleAway(w http.ResponseWriter, r *http.Request) {
	var body emailBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)
		return
	}

	away, err := s.controlSvc.ToggleAway(r.Context(), body.Email)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Set Status", "away": away})
}

// handleLogin issues a magic sign-in link for an existing user.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body emailBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)
		return
	}

	link, err := s.controlSvc.IssueMagicLink(r.Context(), body.Email)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"link": link})
}

// handleBoop sends the test payload to the control webhook endpoint.
func (s *Server) handleBoop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"results": s.webhookSvc.Boop(r.Context())})
}
