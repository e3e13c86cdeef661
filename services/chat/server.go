package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"vtopassist-backend/lib/scrapers/vtop"

	"github.com/go-chi/chi/v5"
)

// Server exposes the chat service as a JSON API.
type Server struct {
	service Service
}

func NewServer(service Service) *Server {
	return &Server{service: service}
}

func (s *Server) Register(r chi.Router) {
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/logout", s.handleLogout)
	r.Get("/api/session", s.handleSession)
	r.Post("/api/data", s.handleData)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("encode response", "err", err)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	err := json.NewDecoder(r.Body).Decode(into)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
		return false
	}
	return true
}

type loginBody struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Campus    string `json:"campus"`
	UseDemo   bool   `json:"useDemo"`
	SessionId string `json:"sessionId"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !readJSON(w, r, &body) {
		return
	}
	if !body.UseDemo && (body.Username == "" || body.Password == "") {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Username and password required",
		})
		return
	}

	campus := vtop.Campus(body.Campus)
	if campus == "" {
		campus = vtop.CampusVellore
	}

	result, err := s.service.Login(r.Context(), body.SessionId, LoginRequest{
		Username: body.Username,
		Password: body.Password,
		Campus:   campus,
		UseDemo:  body.UseDemo,
	})
	if err != nil {
		var loginErr *vtop.LoginError
		message := "Login failed. Please check your credentials."
		if errors.As(err, &loginErr) {
			message = loginErr.Message
		} else {
			slog.ErrorContext(r.Context(), "login", "err", err)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": message,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"isDemo":    result.IsDemo,
		"message":   "Login successful",
		"sessionId": result.SessionId,
	})
}

type chatBody struct {
	Message   string `json:"message"`
	SessionId string `json:"sessionId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if !readJSON(w, r, &body) {
		return
	}

	reply, err := s.service.Chat(r.Context(), body.SessionId, body.Message)
	if err != nil {
		slog.ErrorContext(r.Context(), "chat", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"response": "I encountered an error processing your request. Please try again.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": reply})
}

type logoutBody struct {
	SessionId string `json:"sessionId"`
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body logoutBody
	if !readJSON(w, r, &body) {
		return
	}
	s.service.Logout(body.SessionId)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.SessionInfo(r.URL.Query().Get("sessionId")))
}

type dataBody struct {
	FunctionId string `json:"functionId"`
	SessionId  string `json:"sessionId"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	var body dataBody
	if !readJSON(w, r, &body) {
		return
	}

	payload, err := s.service.DirectData(r.Context(), body.SessionId, body.FunctionId)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    payload,
	})
}
