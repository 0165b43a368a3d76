package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"confidante-backend/internal/chatbot"
	"confidante-backend/internal/types"
)

// maxChatBody bounds one chat request body; accepted text stays in the
// session transcript.
const maxChatBody = 4 << 10

// transcript returns the session's transcript, seeding a new one with the
// greeting.
func (s *Server) transcript(sid string) *chatbot.Transcript {
	tr, created := s.sessions.Transcript(sid, s.bot.Greeting())
	if created {
		s.logger.Debug("chat session started", zap.String("session", sid))
	}
	return tr
}

func (s *Server) handleChatTranscript(w http.ResponseWriter, r *http.Request) {
	sid := s.getOrCreateSessionID(w, r)
	msgs := s.transcript(sid).Messages()

	out := make([]types.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = types.ChatMessage{Text: m.Text, IsUser: m.IsUser, Options: m.Options}
	}
	writeJSON(w, http.StatusOK, types.TranscriptResponse{
		SessionID:   sid,
		Transcript:  out,
		Suggestions: s.bot.Suggestions(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if !s.decodeChat(w, r, &req) {
		return
	}
	sid := s.getOrCreateSessionID(w, r)

	conv := chatbot.NewConversation(s.bot, s.transcript(sid), s.delays)
	reply, err := conv.Send(r.Context(), req.Message)
	if errors.Is(err, chatbot.ErrEmptyInput) {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, http.StatusOK, types.ChatResponse{SessionID: sid, Reply: reply.Text, Options: reply.Options})
}

func (s *Server) handleChatOption(w http.ResponseWriter, r *http.Request) {
	var req types.ChatOptionRequest
	if !s.decodeChat(w, r, &req) {
		return
	}
	sid := s.getOrCreateSessionID(w, r)

	conv := chatbot.NewConversation(s.bot, s.transcript(sid), s.delays)
	reply, err := conv.Choose(r.Context(), req.Option)
	if errors.Is(err, chatbot.ErrEmptyInput) {
		s.writeError(w, http.StatusBadRequest, "option is required")
		return
	}
	writeJSON(w, http.StatusOK, types.ChatResponse{SessionID: sid, Reply: reply.Text, Options: reply.Options})
}

// decodeChat reads a size-limited JSON body into v, answering 400 itself when
// that fails.
func (s *Server) decodeChat(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	err := json.NewDecoder(r.Body).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.writeError(w, http.StatusBadRequest, "message is too long")
		return false
	case err != nil:
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleChatReset forgets the transcript. The session ID stays valid and the
// next request starts over from the greeting.
func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	sid := s.getOrCreateSessionID(w, r)
	s.sessions.Reset(sid)
	w.WriteHeader(http.StatusNoContent)
}
