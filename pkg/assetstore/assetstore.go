// Package assetstore is the client for the remote image store: direct-upload
// signing, on-the-fly transform URLs, byte fetches and uploads.
package assetstore

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrAssetNotFound is returned when the store has no rendering for an asset or URL.
var ErrAssetNotFound = errors.New("asset not found")

// Store is what the reel engine needs from the asset service.
type Store interface {
	// SignUpload signs {timestamp, folder} with the shared secret.
	SignUpload(timestamp int64, folder string) (string, error)
	// BuildTransformURL renders the delivery URL for baseAssetID with the
	// given transformation chain. No network call is made.
	BuildTransformURL(baseAssetID string, steps []TransformStep) (string, error)
	// Resolve asks the store to render url and reports whether it succeeded.
	Resolve(ctx context.Context, url string) error
	FetchBytes(ctx context.Context, assetID string) ([]byte, error)
	Upload(ctx context.Context, data []byte, name, folder string) (string, error)
	PublicURL(assetID string) (string, error)
	Credentials() Credentials
}

// Credentials are the non-secret values a client needs for a direct upload.
type Credentials struct {
	CloudName string
	APIKey    string
}

// TransformStep is one component of a transformation chain. Zero fields are omitted.
type TransformStep struct {
	Width      int
	Height     int
	Crop       string
	Background string
	Gravity    string
	Overlay    string
	Y          int
	Format     string
}

// String renders the step in URL form with parameters in key order,
// e.g. "b_white,c_lpad,g_north,h_1960,w_880,y_40".
func (s TransformStep) String() string {
	params := map[string]string{}
	if s.Background != "" {
		params["b"] = s.Background
	}
	if s.Crop != "" {
		params["c"] = s.Crop
	}
	if s.Format != "" {
		params["f"] = s.Format
	}
	if s.Gravity != "" {
		params["g"] = s.Gravity
	}
	if s.Height > 0 {
		params["h"] = strconv.Itoa(s.Height)
	}
	if s.Overlay != "" {
		params["l"] = OverlayID(s.Overlay)
	}
	if s.Width > 0 {
		params["w"] = strconv.Itoa(s.Width)
	}
	if s.Y != 0 {
		params["y"] = strconv.Itoa(s.Y)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"_"+params[k])
	}
	return strings.Join(parts, ",")
}

// OverlayID converts a foldered asset id into overlay syntax ("a/b" -> "a:b").
func OverlayID(assetID string) string {
	return strings.ReplaceAll(assetID, "/", ":")
}

// Chain joins steps into a single transformation path segment.
func Chain(steps []TransformStep) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		if r := s.String(); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "/")
}
