package remote

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const assetFolder = "contributions"

// AssetStore uploads binary assets to Cloudinary and hands back publicly
// resolvable URLs.
type AssetStore struct {
	cld *cloudinary.Cloudinary
}

func NewAssetStore(cloudName, apiKey, apiSecret string) (*AssetStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &AssetStore{cld: cld}, nil
}

// Upload stores data under a generated name derived from suggestedName and
// returns the public URL.
func (s *AssetStore) Upload(ctx context.Context, data []byte, suggestedName string) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:       assetFolder,
		PublicID:     storedName(suggestedName),
		ResourceType: "auto",
	})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}

// storedName keeps the caller's base name for readability but prefixes a uuid
// so concurrent uploads of identically named files never collide.
func storedName(suggestedName string) string {
	base := strings.TrimSuffix(path.Base(suggestedName), path.Ext(suggestedName))
	if base == "" || base == "." {
		base = "asset"
	}
	return uuid.NewString() + "_" + base
}

// UploadAsset uploads a binary blob through the configured asset store.
// Failures are classified UploadFailed; callers must not write a contribution
// record referencing a failed upload.
func (g *Gateway) UploadAsset(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if g.assets == nil {
		return "", NewError(KindUploadFailed, "asset storage is not configured")
	}
	if len(data) == 0 {
		return "", NewError(KindUploadFailed, "empty asset")
	}

	url, err := g.assets.Upload(ctx, data, suggestedName)
	if err != nil {
		return "", WrapError(KindUploadFailed, "failed to upload asset", err)
	}
	return url, nil
}
