package upload

import (
	"context"
	"io"
	"strings"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/remote"
)

// Uploader stores a binary asset and returns its public URL.
type Uploader interface {
	UploadAsset(ctx context.Context, data []byte, suggestedName string) (string, error)
}

// Creator writes a contribution record referencing an uploaded asset.
type Creator interface {
	CreateContribution(ctx context.Context, c *models.Contribution) (string, error)
}

// Metadata is the form side of a submission.
type Metadata struct {
	Type        string
	Title       string
	Language    string
	Country     string
	Location    string
	Description string
	Username    string
}

// Pipeline turns a locally selected or recorded file plus metadata into an
// uploaded asset and a contribution record, in that order. A failed upload
// aborts before the record is written, so no record ever references a failed
// upload.
type Pipeline struct {
	uploader Uploader
	creator  Creator
}

func NewPipeline(u Uploader, c Creator) *Pipeline {
	return &Pipeline{uploader: u, creator: c}
}

// Submit validates, reads the file, uploads it and writes the record.
// Validation failures happen before any network call. Returns the new
// contribution id; callers clear their transient state (selected file, form
// fields) only after it succeeds.
func (p *Pipeline) Submit(ctx context.Context, fileName string, file io.Reader, meta Metadata, ownerUID string) (string, error) {
	if ownerUID == "" {
		return "", remote.NewError(remote.KindAuthenticationRequired, "sign in to upload contributions")
	}
	if file == nil {
		return "", remote.NewError(remote.KindValidation, "missing media file")
	}
	if strings.TrimSpace(meta.Title) == "" {
		return "", remote.NewError(remote.KindValidation, "title is required")
	}
	if !models.ValidType(meta.Type) {
		return "", remote.NewError(remote.KindValidation, "unknown contribution type")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", remote.WrapError(remote.KindUploadFailed, "failed to read file", err)
	}
	if len(data) == 0 {
		return "", remote.NewError(remote.KindValidation, "missing media file")
	}

	url, err := p.uploader.UploadAsset(ctx, data, fileName)
	if err != nil {
		return "", err
	}

	id, err := p.creator.CreateContribution(ctx, &models.Contribution{
		UserID:      ownerUID,
		Username:    meta.Username,
		Type:        meta.Type,
		Title:       strings.TrimSpace(meta.Title),
		Language:    meta.Language,
		Country:     meta.Country,
		Location:    meta.Location,
		Description: meta.Description,
		URL:         url,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
