package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/yakoovad/hackathon-portal/internal/model"
)

// ObjectStore is the only file-storage surface the portal needs.
type ObjectStore interface {
	// Put stores body under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL is the inverse of the URL returned by Put. False for foreign URLs.
	KeyFromURL(url string) (string, bool)
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SubmissionKey builds submissions/{teamID}/{kind}_{unixMillis}_{random}.{ext}.
func SubmissionKey(teamID string, kind model.FileKind, fileName string, now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, 8)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("submissions/%s/%s_%d_%s", teamID, kind, now.UnixMilli(), suffix)
	if ext := strings.TrimPrefix(path.Ext(fileName), "."); ext != "" {
		key += "." + strings.ToLower(ext)
	}
	return key, nil
}
