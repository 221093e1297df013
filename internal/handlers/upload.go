package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/realtime"
	"github.com/kata-app/kata-backend/internal/remote"
	"github.com/kata-app/kata-backend/internal/upload"
)

const maxUploadBytes = 20 << 20 // 20MB

// Accepted MIME types per declared contribution type.
var allowedMime = map[string][]string{
	models.TypeAudio: {"audio/"},
	models.TypeText: {
		"application/pdf",
		"text/plain",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	models.TypePhoto: {"image/"},
	models.TypeVideo: {"video/"},
}

func mimeAllowed(contribType, contentType string) bool {
	prefixes, ok := allowedMime[contribType]
	if !ok {
		return false
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, p := range prefixes {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(contentType, p) {
				return true
			}
		} else if contentType == p {
			return true
		}
	}
	return false
}

// UploadContribution accepts a multipart form (file + metadata) and runs the
// upload pipeline: validate, store the binary, then write the record. A
// failed upload never leaves an orphan record behind.
func UploadContribution(w http.ResponseWriter, r *http.Request) {
	uid := currentUID(r)
	if uid == "" {
		writeError(w, remote.NewError(remote.KindAuthenticationRequired, "sign in to upload contributions"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid multipart form"})
		return
	}

	meta := upload.Metadata{
		Type:        strings.ToLower(strings.TrimSpace(r.FormValue("type"))),
		Title:       r.FormValue("title"),
		Language:    r.FormValue("language"),
		Country:     r.FormValue("country"),
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
	}
	if meta.Type == "" {
		meta.Type = models.TypeAudio
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// Missing file is a client-side validation failure; no network
		// call has happened yet.
		writeError(w, remote.NewError(remote.KindValidation, "missing media file"))
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !mimeAllowed(meta.Type, ct) {
		writeError(w, remote.NewError(remote.KindValidation, "unsupported file type"))
		return
	}

	// Denormalize the creator's username onto the record so search can
	// filter on it without a join. Non-critical when the profile lags.
	if user, err := gateway.GetProfile(r.Context(), uid); err == nil {
		meta.Username = user.Username
	}

	id, err := uploadPipeline.Submit(r.Context(), header.Filename, file, meta, uid)
	if err != nil {
		writeError(w, err)
		return
	}

	if perr := realtime.PublishFeedEvent(r.Context(), realtime.FeedEvent{
		Type:           realtime.EventContributionCreated,
		ContributionID: id,
		UserID:         uid,
	}); perr != nil {
		log.Printf("failed to publish contribution event: %v", perr)
	}

	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Upload successful", Data: map[string]string{"id": id}})
}
