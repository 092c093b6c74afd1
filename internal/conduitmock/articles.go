package conduitmock

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ternarybob/conduit-e2e/internal/api"
)

const defaultLimit = 20

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// uniqueSlug derives a slug from title, suffixing it when already taken
func (s *Server) uniqueSlug(title string) string {
	base := slugify(title)
	if base == "" {
		base = "article"
	}
	if _, err := s.store.article(base); errors.Is(err, errNotFound) {
		return base
	}
	return base + "-" + uuid.NewString()[:8]
}

// render converts a record for viewer; callers hold s.mu
func (s *Server) render(a *articleRecord, viewer *userRecord) api.Article {
	author, err := s.store.user(a.Author)
	if err != nil {
		author = &userRecord{Username: a.Author}
	}
	tags := a.TagList
	if tags == nil {
		tags = []string{}
	}
	return api.Article{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        tags,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Favorited:      viewer != nil && contains(a.FavoritedBy, viewer.Username),
		FavoritesCount: len(a.FavoritedBy),
		Author:         profile(author, viewer),
	}
}

func listParams(r *http.Request) (limit, offset int, errs fieldErrors) {
	errs = fieldErrors{}
	limit, offset = defaultLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs.add("limit", "is invalid")
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs.add("offset", "is invalid")
		}
		offset = n
	}
	return limit, offset, errs
}

func (s *Server) writeArticles(w http.ResponseWriter, r *http.Request, filter articleFilter) {
	limit, offset, errs := listParams(r)
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.freshViewer(r)
	out := api.ArticlesEnvelope{Articles: []api.Article{}}
	if filter.Feed {
		// Following round-trips through the store as nil when empty
		if viewer == nil || len(viewer.Following) == 0 {
			writeJSON(w, http.StatusOK, out)
			return
		}
		filter.Authors = viewer.Following
	}

	records, total, err := s.store.articles(filter, limit, offset)
	if err != nil {
		s.writeStoreError(w, "articles", err)
		return
	}
	for i := range records {
		out.Articles = append(out.Articles, s.render(&records[i], viewer))
	}
	out.ArticlesCount = total
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.writeArticles(w, r, articleFilter{
		Tag:       q.Get("tag"),
		Author:    q.Get("author"),
		Favorited: q.Get("favorited"),
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.writeArticles(w, r, articleFilter{Feed: true})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.article(r.PathValue("slug"))
	if err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	writeJSON(w, http.StatusOK, api.ArticleEnvelope{Article: s.render(a, s.freshViewer(r))})
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var in api.ArticleInput
	if errs := decode(r, "article", &in); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	errs := fieldErrors{}
	if blank(in.Title) {
		errs.add("title", "can't be blank")
	}
	if blank(in.Description) {
		errs.add("description", "can't be blank")
	}
	if blank(in.Body) {
		errs.add("body", "can't be blank")
	}
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	viewer := s.freshViewer(r)
	now := s.now().UTC()
	a := &articleRecord{
		Slug:        s.uniqueSlug(in.Title),
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		TagList:     dedupe(in.TagList),
		Author:      viewer.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.saveArticle(a); err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	s.logger.Debug().Str("slug", a.Slug).Str("author", a.Author).Msg("Mock article created")
	writeJSON(w, http.StatusOK, api.ArticleEnvelope{Article: s.render(a, viewer)})
}

// ownedArticle loads the path's article and checks the viewer wrote it;
// callers hold s.mu
func (s *Server) ownedArticle(w http.ResponseWriter, r *http.Request) (*articleRecord, *userRecord, bool) {
	a, err := s.store.article(r.PathValue("slug"))
	if err != nil {
		s.writeStoreError(w, "article", err)
		return nil, nil, false
	}
	viewer := s.freshViewer(r)
	if viewer == nil || viewer.Username != a.Author {
		writeError(w, http.StatusForbidden, "article", "forbidden")
		return nil, nil, false
	}
	return a, viewer, true
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	var in api.ArticleInput
	if errs := decode(r, "article", &in); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, viewer, ok := s.ownedArticle(w, r)
	if !ok {
		return
	}

	oldSlug := a.Slug
	if in.Title != "" && in.Title != a.Title {
		a.Title = in.Title
		if slugify(in.Title) != a.Slug {
			a.Slug = s.uniqueSlug(in.Title)
		}
	}
	if in.Description != "" {
		a.Description = in.Description
	}
	if in.Body != "" {
		a.Body = in.Body
	}
	if in.TagList != nil {
		a.TagList = dedupe(in.TagList)
	}
	a.UpdatedAt = s.now().UTC()

	if err := s.store.saveArticle(a); err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	if a.Slug != oldSlug {
		if err := s.moveArticle(oldSlug, a.Slug); err != nil {
			s.writeStoreError(w, "article", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, api.ArticleEnvelope{Article: s.render(a, viewer)})
}

// moveArticle drops the record under oldSlug and repoints its comments
func (s *Server) moveArticle(oldSlug, newSlug string) error {
	comments, err := s.store.comments(oldSlug)
	if err != nil {
		return err
	}
	if err := s.store.deleteArticle(oldSlug); err != nil {
		return err
	}
	for i := range comments {
		comments[i].ArticleSlug = newSlug
		if err := s.store.insertComment(&comments[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, _, ok := s.ownedArticle(w, r)
	if !ok {
		return
	}
	if err := s.store.deleteArticle(a.Slug); err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, true)
}

func (s *Server) handleUnfavorite(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, false)
}

// setFavorite treats favourites as a set, so repeats are no-ops and the
// count never goes below zero
func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.article(r.PathValue("slug"))
	if err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	viewer := s.freshViewer(r)
	if viewer == nil {
		writeError(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}

	if favorite {
		a.FavoritedBy = addUnique(a.FavoritedBy, viewer.Username)
	} else {
		a.FavoritedBy = remove(a.FavoritedBy, viewer.Username)
	}
	if err := s.store.saveArticle(a); err != nil {
		s.writeStoreError(w, "article", err)
		return
	}
	writeJSON(w, http.StatusOK, api.ArticleEnvelope{Article: s.render(a, viewer)})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, err := s.store.tags()
	if err != nil {
		s.writeStoreError(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, api.TagsEnvelope{Tags: tags})
}

func dedupe(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = addUnique(out, t)
		}
	}
	return out
}
