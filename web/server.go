// Package web is the REST boundary. It translates HTTP requests into
// service calls and domain errors into status codes; no chat rules
// live here.
package web

import (
	"chat-room/access"
	"chat-room/domain"
	"chat-room/errors"
	"chat-room/observability"
	"chat-room/services"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// UserHeader carries the requester's name on every authenticated call.
const UserHeader = "User"

type Server struct {
	service services.IChatService
	health  *observability.Health
	log     *slog.Logger
}

func NewServer(service services.IChatService, health *observability.Health, log *slog.Logger) *Server {
	return &Server{service: service, health: health, log: log}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /participants", s.handleJoin)
	mux.HandleFunc("GET /participants", s.handleListParticipants)
	mux.HandleFunc("POST /status", s.handleHeartbeat)
	mux.HandleFunc("POST /messages", s.handlePostMessage)
	mux.HandleFunc("GET /messages", s.handleListMessages)
	mux.HandleFunc("GET /messages/search", s.handleSearchMessages)
	mux.HandleFunc("PUT /messages/{id}", s.handleEditMessage)
	mux.HandleFunc("DELETE /messages/{id}", s.handleDeleteMessage)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

type joinRequest struct {
	Name string `json:"name"`
}

type participantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body joinRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errors.ErrInvalidName)
		return
	}

	participant, err := s.service.Join(body.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toParticipantResponse(participant))
}

func (s *Server) handleListParticipants(w http.ResponseWriter, _ *http.Request) {
	participants, err := s.service.ListParticipants()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(participants, func(p domain.Participant, _ int) participantResponse {
		return toParticipantResponse(p)
	}))
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Heartbeat(r.Header.Get(UserHeader)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var body access.MessageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errors.ErrInvalidMessage)
		return
	}

	message, err := s.service.PostMessage(r.Header.Get(UserHeader), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, errors.ErrInvalidMessage)
			return
		}
		limit = parsed
	}

	messages, err := s.service.ListMessages(r.Header.Get(UserHeader), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, emptyIfNil(messages))
}

func (s *Server) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	terms := r.URL.Query().Get("q")
	if terms == "" {
		s.writeError(w, errors.ErrInvalidMessage)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, errors.ErrInvalidMessage)
			return
		}
		limit = parsed
	}

	messages, err := s.service.SearchMessages(r.Context(), r.Header.Get(UserHeader), terms, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, emptyIfNil(messages))
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, errors.ErrMessageUnknown)
		return
	}

	var body access.MessageBody
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errors.ErrInvalidMessage)
		return
	}

	message, err := s.service.EditMessage(r.Header.Get(UserHeader), id, body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, message)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, errors.ErrMessageUnknown)
		return
	}

	if err = s.service.DeleteMessage(r.Header.Get(UserHeader), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.health.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Response encoding failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}

// statusFromError maps the error taxonomy onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidName), stderrors.Is(err, errors.ErrInvalidMessage):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, errors.ErrNameTaken):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrParticipantUnknown), stderrors.Is(err, errors.ErrMessageUnknown):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrNotMessageOwner):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrUnregisteredSender):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func toParticipantResponse(p domain.Participant) participantResponse {
	return participantResponse{Name: p.Name, LastStatus: p.LastSeen.UnixMilli()}
}

func emptyIfNil(messages []domain.Message) []domain.Message {
	if messages == nil {
		return []domain.Message{}
	}
	return messages
}
