package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kata-app/kata-backend/internal/remote"
	"github.com/kata-app/kata-backend/internal/services"
	"github.com/kata-app/kata-backend/pkg/utils"
)

// SignupRequest carries the registration form.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Country  string `json:"country"`
	Region   string `json:"region,omitempty"`
	City     string `json:"city,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    interface{} `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
}

// Signup registers a new identity: auth principal plus profile record
// sharing one id, then issues a session token.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" || req.Name == "" || req.Username == "" || req.Country == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Email, password, name, username, and country are required"})
		return
	}
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: err.Error()})
		return
	}

	user, err := gateway.SignUp(r.Context(), req.Email, req.Password, remote.ProfileFields{
		Name:     req.Name,
		Username: req.Username,
		Country:  req.Country,
		Region:   req.Region,
		City:     req.City,
		Bio:      req.Bio,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := services.CreateSession(user.UID)
	if err != nil {
		log.Printf("failed to create session after signup: %v", err)
		writeJSON(w, http.StatusCreated, AuthResponse{Success: true, Message: "Account created, please sign in", User: user})
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Success: true, Message: "Account created", User: user, Token: token})
}

// Signin verifies the credential and issues a session token.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Email and password are required"})
		return
	}

	uid, err := gateway.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := services.CreateSession(uid)
	if err != nil {
		writeError(w, remote.WrapError(remote.KindRemote, "failed to create session", err))
		return
	}

	user := minimalOrFullIdentity(r, uid)
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "Signed in", User: user, Token: token})
}

// Signout invalidates the session. Fire-and-forget: it succeeds even when the
// token is already gone.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		if err := services.InvalidateSession(token); err != nil {
			log.Printf("failed to invalidate session: %v", err)
		}
	}
	gateway.SignOut()
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Signed out"})
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// DeleteAccount re-authenticates with the supplied password and removes the
// profile record, then the auth principal. A PartialDeletion response means
// the profile is gone but credentials remain; the client retries the call.
func DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid := currentUID(r)
	if uid == "" {
		writeError(w, remote.NewError(remote.KindAuthenticationRequired, "sign in to delete your account"))
		return
	}

	var req DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Password is required"})
		return
	}

	if err := gateway.DeleteAccount(r.Context(), uid, req.Password); err != nil {
		writeError(w, err)
		return
	}

	if err := services.InvalidateUserSessions(uid); err != nil {
		log.Printf("failed to invalidate sessions for deleted account: %v", err)
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Account deleted"})
}

// GetMe returns the identity for the current session. A missing profile
// record is not an error: the profile may lag principal creation, so a
// minimal identity is returned instead.
func GetMe(w http.ResponseWriter, r *http.Request) {
	uid := currentUID(r)
	if uid == "" {
		writeError(w, remote.NewError(remote.KindAuthenticationRequired, "not signed in"))
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: minimalOrFullIdentity(r, uid)})
}

func minimalOrFullIdentity(r *http.Request, uid string) interface{} {
	user, err := gateway.GetProfile(r.Context(), uid)
	if err == nil {
		return user
	}
	if !remote.IsKind(err, remote.KindNotFound) {
		log.Printf("error loading profile for %s: %v", uid, err)
	}

	minimal := map[string]string{"uid": uid}
	if email, eerr := gateway.PrincipalEmail(r.Context(), uid); eerr == nil {
		minimal["email"] = email
	}
	return minimal
}

type CheckUsernameRequest struct {
	Username string `json:"username"`
}

// CheckUsernameAvailability validates the format and reports whether the
// username is already held by a profile. Best-effort: uniqueness is intended
// but not enforced by the store.
func CheckUsernameAvailability(w http.ResponseWriter, r *http.Request) {
	var req CheckUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: err.Error()})
		return
	}

	taken, err := gateway.UsernameTaken(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"available": !taken}})
}
