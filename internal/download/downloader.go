package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/kata-app/kata-backend/internal/models"
)

const chunkSize = 32 * 1024

// Progress is reported after every written chunk. TotalBytes is -1 when the
// source does not announce a length.
type Progress struct {
	BytesWritten int64
	TotalBytes   int64
}

// Fetch streams url into dst in chunks, invoking onProgress after each one.
// Returns the byte count written. onProgress may be nil.
func Fetch(ctx context.Context, client *http.Client, url string, dst io.Writer, onProgress func(Progress)) (int64, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s fetching asset", resp.Status)
	}

	total := resp.ContentLength
	var written int64
	buf := make([]byte, chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			if onProgress != nil {
				onProgress(Progress{BytesWritten: written, TotalBytes: total})
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// FileName derives a download file name from the contribution title and its
// asset URL: the URL's extension when present, otherwise a default by type.
func FileName(title, assetURL, contribType string) string {
	ext := strings.TrimPrefix(path.Ext(strings.Split(path.Base(assetURL), "?")[0]), ".")
	if ext == "" {
		if contribType == models.TypeAudio {
			ext = "mp3"
		} else {
			ext = "txt"
		}
	}

	base := strings.TrimSpace(title)
	if base == "" {
		base = "download"
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, base)

	return fmt.Sprintf("%s_%d.%s", base, time.Now().UnixMilli(), ext)
}
