package api

import (
	"net/url"
	"strconv"
	"time"
)

// User is the authenticated user returned by /users and /user
type User struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type UserEnvelope struct {
	User User `json:"user"`
}

// Profile is a public view of a user
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type ProfileEnvelope struct {
	Profile Profile `json:"profile"`
}

type Article struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

type ArticleEnvelope struct {
	Article Article `json:"article"`
}

type ArticlesEnvelope struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int       `json:"articlesCount"`
}

type Comment struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Body      string    `json:"body"`
	Author    Profile   `json:"author"`
}

type CommentEnvelope struct {
	Comment Comment `json:"comment"`
}

type CommentsEnvelope struct {
	Comments []Comment `json:"comments"`
}

type TagsEnvelope struct {
	Tags []string `json:"tags"`
}

// ErrorsEnvelope is the 422 body: field name to messages
type ErrorsEnvelope struct {
	Errors map[string][]string `json:"errors"`
}

// LoginInput is the body of POST /users/login
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput is the body of POST /users
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserInput is the body of PUT /user; empty fields are left unchanged
type UpdateUserInput struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Image    string `json:"image,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// ArticleInput is the body of POST /articles and PUT /articles/:slug.
// On update, empty fields are left unchanged.
type ArticleInput struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Body        string   `json:"body,omitempty"`
	TagList     []string `json:"tagList,omitempty"`
}

// CommentInput is the body of POST /articles/:slug/comments
type CommentInput struct {
	Body string `json:"body"`
}

// ListOptions filters GET /articles and /articles/feed
type ListOptions struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

// Values encodes the options as query parameters, omitting zero values
func (o ListOptions) Values() url.Values {
	v := url.Values{}
	if o.Tag != "" {
		v.Set("tag", o.Tag)
	}
	if o.Author != "" {
		v.Set("author", o.Author)
	}
	if o.Favorited != "" {
		v.Set("favorited", o.Favorited)
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}
	return v
}
