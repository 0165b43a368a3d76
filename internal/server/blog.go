package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"confidante-backend/internal/blog"
	"confidante-backend/internal/types"
)

func (s *Server) handleBlogList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.blog.List())
}

func (s *Server) handleBlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.blog.Get(chi.URLParam(r, "slug"))
	if errors.Is(err, blog.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, types.PostResponse{PostSummary: post.PostSummary, HTML: post.HTML})
}
