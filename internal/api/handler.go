package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nimbusdesk/inbox-bridge/internal/biz/domain"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/usecase"
)

// Server provides a local HTTP API over the inbox, acting as one
// staff member. It is meant for loopback use by staff-side tooling,
// not for exposure to the network.
type Server struct {
	ability *usecase.Ability

	server *http.Server
	port   int
}

// NewServer creates a new API server
func NewServer(ability *usecase.Ability, port int) *Server {
	return &Server{
		ability: ability,
		port:    port,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/whoami", s.handleWhoami)
	mux.HandleFunc("/api/conversations", s.handleConversations)
	mux.HandleFunc("/api/conversations/", s.handleConversationItem)
	mux.HandleFunc("/api/messages", s.handleMessages)

	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: mux,
	}

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}

func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	staff := s.ability.Staff()
	s.writeJSON(w, map[string]string{
		"id":   staff.ID,
		"name": staff.Name,
		"type": string(staff.Type),
	})
}

// GET /api/conversations?id=&type=&customer_id=&limit=&offset=
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	args := usecase.ConversationListArgs{
		Limit:  intParam(q.Get("limit")),
		Offset: intParam(q.Get("offset")),
	}
	if v := q.Get("id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		args.ID = &id
	}
	if v := q.Get("type"); v != "" {
		ct := domain.ConversationType(v)
		args.Type = &ct
	}
	if v := q.Get("customer_id"); v != "" {
		args.CustomerID = &v
	}

	convs, err := s.ability.GetConversations(r.Context(), args)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{"conversations": convs})
}

// Routes under /api/conversations/{id}:
//
//	GET  /api/conversations/{id}
//	GET  /api/conversations/{id}/messages
//	POST /api/conversations/{id}/messages
//	POST /api/conversations/{id}/join
//	POST /api/conversations/{id}/staff
func (s *Server) handleConversationItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	parts := strings.SplitN(path, "/", 2)

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		s.handleGetConversation(w, r, id)
	case rest == "messages" && r.Method == http.MethodGet:
		s.handleConversationMessages(w, r, id)
	case rest == "messages" && r.Method == http.MethodPost:
		s.handleSendMessage(w, r, id)
	case rest == "join" && r.Method == http.MethodPost:
		s.handleJoin(w, r, id)
	case rest == "staff" && r.Method == http.MethodPost:
		s.handleAddStaff(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request, id int64) {
	conv, err := s.ability.GetConversationByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if conv == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, conv)
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request, id int64) {
	q := r.URL.Query()
	args := usecase.MessageListArgs{
		ConversationID: &id,
		Order:          repo.SortOrder(q.Get("order")),
		Limit:          intParam(q.Get("limit")),
		Offset:         intParam(q.Get("offset")),
	}
	if v := q.Get("author_type"); v != "" {
		at := domain.AuthorType(v)
		args.AuthorType = &at
	}

	msgs, err := s.ability.GetMessages(r.Context(), args)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{"messages": msgs})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, id int64) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	msg, err := s.ability.SendTextMessage(r.Context(), id, body.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, msg)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.ability.JoinConversation(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]bool{"success": true})
}

func (s *Server) handleAddStaff(w http.ResponseWriter, r *http.Request, id int64) {
	var body struct {
		StaffID   string `json:"staff_id"`
		StaffType string `json:"staff_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.StaffID == "" {
		http.Error(w, "staff_id is required", http.StatusBadRequest)
		return
	}

	target := domain.Staff{ID: body.StaffID, Type: domain.StaffType(body.StaffType)}
	if err := s.ability.AddToConversation(r.Context(), id, target); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]bool{"success": true})
}

// GET /api/messages?id=&conversation_id=&author_type=&order=&limit=&offset=
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	args := usecase.MessageListArgs{
		Order:  repo.SortOrder(q.Get("order")),
		Limit:  intParam(q.Get("limit")),
		Offset: intParam(q.Get("offset")),
	}
	if v := q.Get("id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		args.ID = &id
	}
	if v := q.Get("conversation_id"); v != "" {
		cid, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid conversation_id", http.StatusBadRequest)
			return
		}
		args.ConversationID = &cid
	}
	if v := q.Get("author_type"); v != "" {
		at := domain.AuthorType(v)
		args.AuthorType = &at
	}

	msgs, err := s.ability.GetMessages(r.Context(), args)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{"messages": msgs})
}

func intParam(v string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if errors.Is(err, domain.ErrAccessDenied) {
		w.WriteHeader(http.StatusForbidden)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
