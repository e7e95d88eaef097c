package services

import (
	"context"
	"encoding/base64"
	"errors"
	"mime"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes caps uploads and inline data URIs.
const MaxImageBytes = 10 << 20

// ErrImageStoreDisabled is returned when uploads are requested without a configured backend.
var ErrImageStoreDisabled = errors.New("image uploads are not configured")

// ImageStore uploads image bytes and returns a public URL.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// IsDataURI reports whether uri carries inline image data.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(strings.TrimSpace(uri), "data:")
}

// DecodeDataURI decodes data:<type>[;base64],<payload>.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, "", errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("malformed data URI")
	}

	contentType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0 && part != "":
			contentType = part
		case part == "base64":
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", errors.New("malformed base64 payload")
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", errors.New("malformed data URI payload")
		}
		data = []byte(unescaped)
	}
	if len(data) > MaxImageBytes {
		return nil, "", errors.New("image too large")
	}
	return data, contentType, nil
}

// objectKey names an uploaded object under prefix with an extension matching contentType.
func objectKey(prefix, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return strings.TrimSuffix(prefix, "/") + "/" + uuid.NewString() + ext
}
