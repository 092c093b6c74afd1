package conduitmock

import (
	"errors"
	"net/http"

	"github.com/ternarybob/conduit-e2e/internal/api"
)

func (s *Server) userResponse(w http.ResponseWriter, u *userRecord) {
	token, err := s.tokens.issue(u)
	if err != nil {
		s.logger.Error().Err(err).Str("username", u.Username).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "token", "could not be issued")
		return
	}
	writeJSON(w, http.StatusOK, api.UserEnvelope{User: api.User{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in api.LoginInput
	if errs := decode(r, "user", &in); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	errs := fieldErrors{}
	if blank(in.Email) {
		errs.add("email", "can't be blank")
	}
	if blank(in.Password) {
		errs.add("password", "can't be blank")
	}
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.mu.Lock()
	u, err := s.store.userByEmail(in.Email)
	s.mu.Unlock()
	if err != nil && !errors.Is(err, errNotFound) {
		s.writeStoreError(w, "user", err)
		return
	}
	if u == nil || u.Password != in.Password {
		writeError(w, http.StatusUnprocessableEntity, "email or password", "is invalid")
		return
	}
	s.userResponse(w, u)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in api.RegisterInput
	if errs := decode(r, "user", &in); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	errs := fieldErrors{}
	if blank(in.Username) {
		errs.add("username", "can't be blank")
	}
	if blank(in.Email) {
		errs.add("email", "can't be blank")
	}
	if blank(in.Password) {
		errs.add("password", "can't be blank")
	}
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.user(in.Username); err == nil {
		errs.add("username", "has already been taken")
	}
	if _, err := s.store.userByEmail(in.Email); err == nil {
		errs.add("email", "has already been taken")
	}
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	u := &userRecord{Username: in.Username, Email: in.Email, Password: in.Password}
	if err := s.store.saveUser(u); err != nil {
		s.writeStoreError(w, "user", err)
		return
	}
	s.logger.Debug().Str("username", u.Username).Msg("Mock user registered")
	s.userResponse(w, u)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.userResponse(w, viewerFrom(r.Context()))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in api.UpdateUserInput
	if errs := decode(r, "user", &in); errs != nil {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.store.user(viewerFrom(r.Context()).Username)
	if err != nil {
		s.writeStoreError(w, "user", err)
		return
	}

	errs := fieldErrors{}
	if in.Email != "" && in.Email != u.Email {
		if _, err := s.store.userByEmail(in.Email); err == nil {
			errs.add("email", "has already been taken")
		}
	}
	if in.Username != "" && in.Username != u.Username {
		if _, err := s.store.user(in.Username); err == nil {
			errs.add("username", "has already been taken")
		}
	}
	if len(errs) > 0 {
		writeErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	oldName := u.Username
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Password != "" {
		u.Password = in.Password
	}
	if in.Bio != "" {
		u.Bio = in.Bio
	}
	if in.Image != "" {
		u.Image = in.Image
	}
	if in.Username != "" {
		u.Username = in.Username
	}

	if err := s.store.saveUser(u); err != nil {
		s.writeStoreError(w, "user", err)
		return
	}
	if u.Username != oldName {
		if err := s.store.deleteUser(oldName); err != nil {
			s.writeStoreError(w, "user", err)
			return
		}
		if err := s.store.renameUser(oldName, u.Username); err != nil {
			s.writeStoreError(w, "user", err)
			return
		}
	}
	s.userResponse(w, u)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.store.user(r.PathValue("username"))
	if err != nil {
		s.writeStoreError(w, "profile", err)
		return
	}
	viewer := s.freshViewer(r)
	writeJSON(w, http.StatusOK, api.ProfileEnvelope{Profile: profile(u, viewer)})
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	s.setFollowing(w, r, true)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	s.setFollowing(w, r, false)
}

// setFollowing is idempotent in both directions
func (s *Server) setFollowing(w http.ResponseWriter, r *http.Request, follow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.store.user(r.PathValue("username"))
	if err != nil {
		s.writeStoreError(w, "profile", err)
		return
	}
	viewer := s.freshViewer(r)
	if viewer == nil {
		writeError(w, http.StatusUnauthorized, "token", "is invalid")
		return
	}

	if follow {
		viewer.Following = addUnique(viewer.Following, target.Username)
	} else {
		viewer.Following = remove(viewer.Following, target.Username)
	}
	if err := s.store.saveUser(viewer); err != nil {
		s.writeStoreError(w, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, api.ProfileEnvelope{Profile: profile(target, viewer)})
}

// freshViewer re-reads the request's user; callers hold s.mu
func (s *Server) freshViewer(r *http.Request) *userRecord {
	v := viewerFrom(r.Context())
	if v == nil {
		return nil
	}
	u, err := s.store.user(v.Username)
	if err != nil {
		return nil
	}
	return u
}
