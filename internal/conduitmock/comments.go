package conduitmock

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/conduit-e2e/internal/api"
)

func (s *Server) renderComment(c *commentRecord, viewer *userRecord) api.Comment {
	author, err := s.store.user(c.Author)
	if err != nil {
		author = &userRecord{Username: c.Author}
	}
	return api.Comment{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Body:      c.Body,
		Author:    profile(author, viewer),
	}
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := r.PathValue("slug")
	if _, err := s.store.article(slug); err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	records, err := s.store.comments(slug)
	if err != nil {
		s.writeStoreError(w, "comments", err)
		return
	}

	viewer := s.freshViewer(r)
	out := api.CommentsEnvelope{Comments: []api.Comment{}}
	for i := range records {
		out.Comments = append(out.Comments, s.renderComment(&records[i], viewer))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var in api.CommentInput
	if errs := decode(r, "comment", &in); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}
	if blank(in.Body) {
		writeError(w, http.StatusUnprocessableEntity, "body", "can't be blank")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slug := r.PathValue("slug")
	if _, err := s.store.article(slug); err != nil {
		s.writeStoreError(w, "article", err)
		return
	}

	viewer := s.freshViewer(r)
	if viewer == nil {
		writeError(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}
	s.commentID++
	now := s.now().UTC()
	c := &commentRecord{
		ID:          s.commentID,
		ArticleSlug: slug,
		Body:        in.Body,
		Author:      viewer.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.insertComment(c); err != nil {
		s.writeStoreError(w, "comment", err)
		return
	}
	writeJSON(w, http.StatusOK, api.CommentEnvelope{Comment: s.renderComment(c, viewer)})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "comment", "not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slug := r.PathValue("slug")
	if _, err := s.store.article(slug); err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	c, err := s.store.comment(id)
	if err != nil {
		s.writeStoreError(w, "comment", err)
		return
	}
	if c.ArticleSlug != slug {
		writeError(w, http.StatusNotFound, "comment", "not found")
		return
	}
	viewer := s.freshViewer(r)
	if viewer == nil || viewer.Username != c.Author {
		writeError(w, http.StatusForbidden, "comment", "forbidden")
		return
	}

	if err := s.store.deleteComment(id); err != nil {
		s.writeStoreError(w, "comment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}
