package storage

import (
	"context"
	"io"
	"net/url"
)

// Transformation applied server-side to every video upload: normalize the
// container to mp4 and let the provider pick the quality.
const VideoUploadTransformation = "q_auto,f_mp4"

// Eager transformation requested by signed direct uploads. The provider
// produces this rendition at upload time rather than on first render.
const SignedUploadEager = "q_auto:good,f_mp4"

// UploadResult carries the fields of the provider's upload response that the
// workflow persists or returns to clients.
type UploadResult struct {
	PublicID string  `json:"public_id"` // Opaque asset identifier issued by the provider
	Bytes    int64   `json:"bytes"`     // Stored size after any upload transformation
	Duration float64 `json:"duration"`  // Seconds; 0 for images or when the provider omits it
}

// MediaStorage defines the interface to the external media-management
// provider: it stores raw bytes, signs direct-upload parameter sets, and
// addresses derived renditions by URL.
type MediaStorage interface {
	// UploadImage stores an image under the given folder and returns the
	// provider's upload result.
	UploadImage(ctx context.Context, folder string, file io.Reader) (*UploadResult, error)

	// UploadVideo stores a video under the given folder, applying
	// VideoUploadTransformation, and returns the provider's upload result.
	UploadVideo(ctx context.Context, folder string, file io.Reader) (*UploadResult, error)

	// SignUploadParams computes the provider signature over the exact
	// parameter set a client will send with a direct upload. Deterministic
	// for identical params and secret.
	SignUploadParams(params url.Values) (string, error)

	// ImageURL returns the delivery URL of an image rendition. The
	// transformation string may be empty for the original.
	ImageURL(publicID, transformation, format string) string

	// VideoURL returns the delivery URL of a video rendition.
	VideoURL(publicID, transformation, format string) string

	// CloudName returns the public account identifier.
	CloudName() string

	// APIKey returns the public API key. The API secret is never exposed.
	APIKey() string
}
