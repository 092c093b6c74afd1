package conduitmock

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/conduit-e2e/internal/api"
)

var errNotFound = errors.New("not found")

type userRecord struct {
	Username  string
	Email     string `badgerhold:"index"`
	Password  string
	Bio       string
	Image     string
	Following []string
}

type articleRecord struct {
	Slug        string
	Title       string
	Description string
	Body        string
	TagList     []string
	Author      string `badgerhold:"index"`
	FavoritedBy []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type commentRecord struct {
	ID          int64
	ArticleSlug string `badgerhold:"index"`
	Body        string
	Author      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// store persists Conduit entities in an in-memory badger database
type store struct {
	db *badgerhold.Store
}

func openStore() (*store, error) {
	options := badgerhold.DefaultOptions
	options.Dir = ""
	options.ValueDir = ""
	options.InMemory = true
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger store: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) close() error {
	return s.db.Close()
}

func (s *store) reset() error {
	for _, dataType := range []interface{}{&userRecord{}, &articleRecord{}, &commentRecord{}} {
		if err := s.db.DeleteMatching(dataType, nil); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}
	return nil
}

func (s *store) user(username string) (*userRecord, error) {
	var u userRecord
	if err := s.db.Get(username, &u); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return &u, nil
}

func (s *store) userByEmail(email string) (*userRecord, error) {
	var users []userRecord
	if err := s.db.Find(&users, badgerhold.Where("Email").Eq(email).Index("Email")); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, errNotFound
	}
	return &users[0], nil
}

func (s *store) saveUser(u *userRecord) error {
	if err := s.db.Upsert(u.Username, u); err != nil {
		return fmt.Errorf("failed to store user %s: %w", u.Username, err)
	}
	return nil
}

func (s *store) deleteUser(username string) error {
	if err := s.db.Delete(username, &userRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete user %s: %w", username, err)
	}
	return nil
}

// renameUser repoints articles, comments, favorites and follows from oldName
// to newName. The user record itself is saved by the caller.
func (s *store) renameUser(oldName, newName string) error {
	swap := func(names []string) []string {
		for i, n := range names {
			if n == oldName {
				names[i] = newName
			}
		}
		return names
	}

	err := s.db.UpdateMatching(&articleRecord{}, nil, func(record interface{}) error {
		a := record.(*articleRecord)
		if a.Author == oldName {
			a.Author = newName
		}
		a.FavoritedBy = swap(a.FavoritedBy)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rename author %s: %w", oldName, err)
	}

	err = s.db.UpdateMatching(&commentRecord{}, badgerhold.Where("Author").Eq(oldName), func(record interface{}) error {
		record.(*commentRecord).Author = newName
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rename commenter %s: %w", oldName, err)
	}

	err = s.db.UpdateMatching(&userRecord{}, badgerhold.Where("Following").Contains(oldName), func(record interface{}) error {
		u := record.(*userRecord)
		u.Following = swap(u.Following)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rename followed user %s: %w", oldName, err)
	}
	return nil
}

func (s *store) article(slug string) (*articleRecord, error) {
	var a articleRecord
	if err := s.db.Get(slug, &a); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get article %s: %w", slug, err)
	}
	return &a, nil
}

func (s *store) saveArticle(a *articleRecord) error {
	if err := s.db.Upsert(a.Slug, a); err != nil {
		return fmt.Errorf("failed to store article %s: %w", a.Slug, err)
	}
	return nil
}

// deleteArticle removes an article and its comments
func (s *store) deleteArticle(slug string) error {
	if err := s.db.Delete(slug, &articleRecord{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return errNotFound
		}
		return fmt.Errorf("failed to delete article %s: %w", slug, err)
	}
	if err := s.db.DeleteMatching(&commentRecord{}, badgerhold.Where("ArticleSlug").Eq(slug).Index("ArticleSlug")); err != nil {
		return fmt.Errorf("failed to delete comments of %s: %w", slug, err)
	}
	return nil
}

// articleFilter selects articles; empty fields match everything. Feed
// restricts the list to Authors, where an empty set matches nothing.
type articleFilter struct {
	Tag       string
	Author    string
	Favorited string
	Feed      bool
	Authors   []string
}

func (f articleFilter) query() *badgerhold.Query {
	var q *badgerhold.Query
	where := func(field string) *badgerhold.Criterion {
		if q == nil {
			return badgerhold.Where(field)
		}
		return q.And(field)
	}
	if f.Tag != "" {
		q = where("TagList").Contains(f.Tag)
	}
	if f.Author != "" {
		q = where("Author").Eq(f.Author)
	}
	if f.Favorited != "" {
		q = where("FavoritedBy").Contains(f.Favorited)
	}
	if f.Feed {
		authors := make([]interface{}, len(f.Authors))
		for i, a := range f.Authors {
			authors[i] = a
		}
		q = where("Author").In(authors...)
	}
	return q
}

// articles returns the page of matching articles, newest first, and the
// total number of matches
func (s *store) articles(f articleFilter, limit, offset int) ([]articleRecord, int, error) {
	var all []articleRecord
	if err := s.db.Find(&all, f.query()); err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (s *store) tags() ([]string, error) {
	var all []articleRecord
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	seen := make(map[string]bool)
	tags := []string{}
	for _, a := range all {
		for _, t := range a.TagList {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *store) comment(id int64) (*commentRecord, error) {
	var c commentRecord
	if err := s.db.Get(id, &c); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get comment %d: %w", id, err)
	}
	return &c, nil
}

func (s *store) insertComment(c *commentRecord) error {
	if err := s.db.Insert(c.ID, c); err != nil {
		return fmt.Errorf("failed to store comment: %w", err)
	}
	return nil
}

func (s *store) deleteComment(id int64) error {
	if err := s.db.Delete(id, &commentRecord{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return errNotFound
		}
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return nil
}

// comments returns an article's comments, oldest first
func (s *store) comments(slug string) ([]commentRecord, error) {
	var list []commentRecord
	if err := s.db.Find(&list, badgerhold.Where("ArticleSlug").Eq(slug).Index("ArticleSlug")); err != nil {
		return nil, fmt.Errorf("failed to list comments of %s: %w", slug, err)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// profile renders u as seen by viewer, who may be nil
func profile(u *userRecord, viewer *userRecord) api.Profile {
	return api.Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: viewer != nil && contains(viewer.Following, u.Username),
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// addUnique adds v to a set-like slice
func addUnique(list []string, v string) []string {
	if contains(list, v) {
		return list
	}
	return append(list, v)
}

// remove drops v from a set-like slice
func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
