package service

import (
	"clipforge/media-app/internal/domain"
	"clipforge/media-app/internal/repository"
	"clipforge/media-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"
)

// --- Error Definitions ---
var (
	ErrStorageNotConfigured = errors.New("media storage credentials not configured")
	ErrNoFile               = errors.New("no file uploaded")
	ErrUnknownFormat        = errors.New("unknown social format")
)

// Fixed thumbnail rendition for video listings.
const videoThumbnailTransformation = "c_fill,g_auto,w_400,h_225"

// SignedUpload is the parameter set returned to clients that upload directly
// to the provider. It is ephemeral: computed per request, never stored, and
// validated independently by the provider against its timestamp window.
type SignedUpload struct {
	CloudName string            `json:"cloudName"`
	APIKey    string            `json:"apiKey"`
	Timestamp int64             `json:"timestamp"`
	Folder    string            `json:"folder"`
	Signature string            `json:"signature"`
	Params    map[string]string `json:"params"`
}

// VideoListing pairs a video record with the delivery URLs the frontend
// renders and downloads from.
type VideoListing struct {
	domain.Video
	ThumbnailURL string `json:"thumbnailUrl"`
	PreviewURL   string `json:"previewUrl"`
	DownloadURL  string `json:"downloadUrl"`
}

// RenderedImage is the computed rendition of an uploaded image for one social
// format preset.
type RenderedImage struct {
	URL         string `json:"url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	AspectRatio string `json:"aspectRatio"`
}

// MediaService implements the upload-and-transform workflow: relaying files
// to the media provider, persisting video metadata, issuing signed upload
// authorizations, and computing rendition URLs.
type MediaService interface {
	UploadImage(ctx context.Context, file io.Reader) (publicID string, err error)
	UploadVideo(ctx context.Context, in VideoUploadInput) (*domain.Video, error)
	SignUpload(ctx context.Context, folder string) (*SignedUpload, error)
	ListVideos(ctx context.Context) ([]VideoListing, error)
	RenderImage(publicID, formatName string) (*RenderedImage, error)
	Presets() []domain.SocialFormat
}

// VideoUploadInput carries the multipart fields of a video upload request.
type VideoUploadInput struct {
	File         io.Reader
	Title        string
	Description  string
	OriginalSize string
}

// mediaService implements the MediaService interface.
type mediaService struct {
	videoRepo   repository.VideoRepository
	storage     storage.MediaStorage
	imageFolder string
	videoFolder string
	now         func() time.Time
}

// NewMediaService creates a new instance of mediaService. The storage
// dependency may be nil when provider credentials are absent; every operation
// then fails with ErrStorageNotConfigured instead of reaching the network.
func NewMediaService(videoRepo repository.VideoRepository, mediaStorage storage.MediaStorage, imageFolder, videoFolder string) MediaService {
	if imageFolder == "" {
		imageFolder = "image-uploads"
	}
	if videoFolder == "" {
		videoFolder = "video-uploads"
	}
	return &mediaService{
		videoRepo:   videoRepo,
		storage:     mediaStorage,
		imageFolder: imageFolder,
		videoFolder: videoFolder,
		now:         time.Now,
	}
}

// UploadImage relays an image payload to the provider and returns the issued
// asset identifier.
func (s *mediaService) UploadImage(ctx context.Context, file io.Reader) (string, error) {
	if file == nil {
		return "", ErrNoFile
	}
	if s.storage == nil {
		return "", ErrStorageNotConfigured
	}

	result, err := s.storage.UploadImage(ctx, s.imageFolder, file)
	if err != nil {
		return "", fmt.Errorf("image upload: %w", err)
	}
	return result.PublicID, nil
}

// UploadVideo relays a video payload to the provider and, on success, creates
// exactly one metadata record from the provider's reported result. The record
// is only written after the provider accepted the upload; the reverse failure
// (stored asset, failed insert) is surfaced as an error and not compensated.
func (s *mediaService) UploadVideo(ctx context.Context, in VideoUploadInput) (*domain.Video, error) {
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}
	if in.File == nil {
		return nil, ErrNoFile
	}

	result, err := s.storage.UploadVideo(ctx, s.videoFolder, in.File)
	if err != nil {
		return nil, fmt.Errorf("video upload: %w", err)
	}

	video := &domain.Video{
		Title:          in.Title,
		Description:    in.Description,
		PublicID:       result.PublicID,
		OriginalSize:   in.OriginalSize,
		CompressedSize: strconv.FormatInt(result.Bytes, 10),
		Duration:       result.Duration, // 0 when the provider omits it
	}

	if _, err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video record for %s: %w", result.PublicID, err)
	}
	return video, nil
}

// SignUpload assembles the canonical direct-upload parameter set and signs it
// with the server-held secret. The secret itself never leaves this process.
func (s *mediaService) SignUpload(_ context.Context, folder string) (*SignedUpload, error) {
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	if folder == "" {
		folder = s.videoFolder
	}
	timestamp := s.now().Unix()

	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("folder", folder)
	params.Set("resource_type", "video")
	params.Set("eager", storage.SignedUploadEager)

	signature, err := s.storage.SignUploadParams(params)
	if err != nil {
		return nil, fmt.Errorf("sign upload request: %w", err)
	}

	signed := map[string]string{}
	for key := range params {
		signed[key] = params.Get(key)
	}

	return &SignedUpload{
		CloudName: s.storage.CloudName(),
		APIKey:    s.storage.APIKey(),
		Timestamp: timestamp,
		Folder:    folder,
		Signature: signature,
		Params:    signed,
	}, nil
}

// ListVideos returns all video records, newest first, with their delivery
// URLs computed.
func (s *mediaService) ListVideos(ctx context.Context) ([]VideoListing, error) {
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	videos, err := s.videoRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	listings := make([]VideoListing, len(videos))
	for i, v := range videos {
		listings[i] = VideoListing{
			Video:        v,
			ThumbnailURL: s.storage.VideoURL(v.PublicID, videoThumbnailTransformation, "jpg"),
			PreviewURL:   s.storage.VideoURL(v.PublicID, "q_auto", "mp4"),
			DownloadURL:  s.storage.VideoURL(v.PublicID, "fl_attachment,q_auto", "mp4"),
		}
	}
	return listings, nil
}

// RenderImage computes the delivery URL of an uploaded image cropped to the
// chosen social format. The browser fetches the bytes from the provider
// directly; no payload flows through this server.
func (s *mediaService) RenderImage(publicID, formatName string) (*RenderedImage, error) {
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	format, ok := domain.SocialFormatByName(formatName)
	if !ok {
		return nil, ErrUnknownFormat
	}

	transformation := fmt.Sprintf("c_fill,g_auto,w_%d,h_%d", format.Width, format.Height)
	return &RenderedImage{
		URL:         s.storage.ImageURL(publicID, transformation, "png"),
		Width:       format.Width,
		Height:      format.Height,
		AspectRatio: format.AspectRatio,
	}, nil
}

// Presets returns the social format catalog.
func (s *mediaService) Presets() []domain.SocialFormat {
	return domain.SocialFormats
}
