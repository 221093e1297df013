package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kata-app/kata-backend/internal/feed"
	"github.com/kata-app/kata-backend/internal/likes"
	"github.com/kata-app/kata-backend/internal/remote"
	"github.com/kata-app/kata-backend/internal/services"
	"github.com/kata-app/kata-backend/internal/upload"
)

// Package-level wiring, set once at startup.
var (
	gateway         *remote.Gateway
	repo            *feed.Repository
	likeCoordinator *likes.Coordinator
	uploadPipeline  *upload.Pipeline
)

// Init wires the handler package against the gateway and builds the
// client-core components on top of it.
func Init(gw *remote.Gateway) {
	gateway = gw
	repo = feed.NewRepository(gw)
	likeCoordinator = likes.NewCoordinator(repo, gw)
	uploadPipeline = upload.NewPipeline(gw, gw)
}

// Response is the common JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a classified gateway error onto an HTTP status and a
// user-visible notice. Nothing is retried automatically; the client
// re-initiates after the notice.
func writeError(w http.ResponseWriter, err error) {
	kind := remote.KindOf(err)
	msg := "something went wrong, please try again"
	var re *remote.Error
	if errors.As(err, &re) {
		msg = re.Message
	}
	writeJSON(w, statusForKind(kind), Response{Success: false, Message: msg, Kind: string(kind)})
}

func statusForKind(kind remote.ErrorKind) int {
	switch kind {
	case remote.KindValidation:
		return http.StatusBadRequest
	case remote.KindAuthenticationRequired, remote.KindInvalidCredential:
		return http.StatusUnauthorized
	case remote.KindAlreadyExists:
		return http.StatusConflict
	case remote.KindTooManyAttempts:
		return http.StatusTooManyRequests
	case remote.KindNotFound:
		return http.StatusNotFound
	case remote.KindUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// extractBearerToken pulls the token from an Authorization header.
func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

// currentUID resolves the request's session token to a user id, "" when the
// request is anonymous.
func currentUID(r *http.Request) string {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return ""
	}
	uid, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		return ""
	}
	return uid
}
