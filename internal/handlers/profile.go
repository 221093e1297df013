package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kata-app/kata-backend/internal/remote"
	"github.com/kata-app/kata-backend/pkg/utils"
)

// GetProfile returns the public profile for the uid query parameter.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "uid is required"})
		return
	}

	user, err := gateway.GetProfile(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: user})
}

// Fields a profile-edit may touch. Anything else in the body is dropped.
var editableProfileFields = map[string]bool{
	"name":       true,
	"username":   true,
	"country":    true,
	"region":     true,
	"city":       true,
	"bio":        true,
	"avatar_url": true,
}

// UpdateProfile applies a partial update to the caller's profile record.
// Unspecified fields are left untouched (merge, not replace).
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid := currentUID(r)
	if uid == "" {
		writeError(w, remote.NewError(remote.KindAuthenticationRequired, "sign in to edit your profile"))
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}

	fields := make(map[string]interface{}, len(body))
	for k, v := range body {
		if !editableProfileFields[k] {
			continue
		}
		if k == "username" {
			name, ok := v.(string)
			if !ok {
				writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "username must be a string"})
				return
			}
			if err := utils.ValidateUsername(name); err != nil {
				writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: err.Error()})
				return
			}
			v = utils.NormalizeUsername(name)
		}
		fields[k] = v
	}

	if len(fields) == 0 {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "No editable fields supplied"})
		return
	}

	if err := gateway.UpdateProfile(r.Context(), uid, fields); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Profile updated"})
}
