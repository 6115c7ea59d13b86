package storage

import (
	"bytes"
	"clipforge/media-app/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
)

const (
	defaultUploadBaseURL   = "https://api.cloudinary.com/v1_1"
	defaultDeliveryBaseURL = "https://res.cloudinary.com"
	uploadTimeout          = 2 * time.Minute
)

// cloudinaryStorage implements the MediaStorage interface against the
// Cloudinary upload and delivery APIs. Request signing is delegated to the
// provider SDK's canonical algorithm; only the HTTP upload call itself is
// made here, because the workflow needs the reported video duration from the
// raw upload response.
type cloudinaryStorage struct {
	httpClient      *http.Client
	uploadBaseURL   string
	deliveryBaseURL string
	cloudName       string
	apiKey          string
	apiSecret       string
}

// NewCloudinaryStorage creates a new media storage service instance.
// Credentials are validated up front so a misconfigured process fails at
// construction, not on the first upload.
func NewCloudinaryStorage(cfg config.CloudinaryConfig) (MediaStorage, error) {
	if !cfg.Configured() {
		return nil, config.ErrMissingCredentials
	}

	log.Printf("Cloudinary storage initialized for cloud: %s", cfg.CloudName)

	return &cloudinaryStorage{
		httpClient:      &http.Client{Timeout: uploadTimeout},
		uploadBaseURL:   defaultUploadBaseURL,
		deliveryBaseURL: defaultDeliveryBaseURL,
		cloudName:       cfg.CloudName,
		apiKey:          cfg.APIKey,
		apiSecret:       cfg.APISecret,
	}, nil
}

// uploadResponse is the subset of the provider's upload response the workflow
// consumes.
type uploadResponse struct {
	PublicID string  `json:"public_id"`
	Bytes    int64   `json:"bytes"`
	Duration float64 `json:"duration"`
	Error    struct {
		Message string `json:"message"`
	} `json:"error"`
}

// UploadImage stores an image under the given folder.
func (s *cloudinaryStorage) UploadImage(ctx context.Context, folder string, file io.Reader) (*UploadResult, error) {
	params := url.Values{}
	params.Set("folder", folder)
	return s.upload(ctx, "image", params, file)
}

// UploadVideo stores a video under the given folder with the fixed upload
// transformation applied.
func (s *cloudinaryStorage) UploadVideo(ctx context.Context, folder string, file io.Reader) (*UploadResult, error) {
	params := url.Values{}
	params.Set("folder", folder)
	params.Set("transformation", VideoUploadTransformation)
	return s.upload(ctx, "video", params, file)
}

// upload performs one signed multipart POST against the provider's upload
// endpoint. All params are included in the signature; api_key, signature and
// the file part are appended afterwards, matching the provider's contract.
func (s *cloudinaryStorage) upload(ctx context.Context, resourceType string, params url.Values, file io.Reader) (*UploadResult, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))

	signature, err := s.SignUploadParams(params)
	if err != nil {
		return nil, fmt.Errorf("sign upload params: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key := range params {
		if err := writer.WriteField(key, params.Get(key)); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField("api_key", s.apiKey); err != nil {
		return nil, err
	}
	if err := writer.WriteField("signature", signature); err != nil {
		return nil, err
	}
	part, err := writer.CreateFormFile("file", "file")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", s.uploadBaseURL, s.cloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary %s upload: %w", resourceType, err)
	}
	defer resp.Body.Close()

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode cloudinary response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := decoded.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("cloudinary %s upload rejected: %s", resourceType, msg)
	}
	if decoded.PublicID == "" {
		return nil, errors.New("cloudinary response missing public_id")
	}

	return &UploadResult{
		PublicID: decoded.PublicID,
		Bytes:    decoded.Bytes,
		Duration: decoded.Duration,
	}, nil
}

// SignUploadParams signs the parameter set with the server-held secret using
// the provider SDK's signing algorithm.
func (s *cloudinaryStorage) SignUploadParams(params url.Values) (string, error) {
	return api.SignParameters(params, s.apiSecret)
}

// ImageURL returns the delivery URL of an image rendition.
func (s *cloudinaryStorage) ImageURL(publicID, transformation, format string) string {
	return s.deliveryURL("image", publicID, transformation, format)
}

// VideoURL returns the delivery URL of a video rendition.
func (s *cloudinaryStorage) VideoURL(publicID, transformation, format string) string {
	return s.deliveryURL("video", publicID, transformation, format)
}

func (s *cloudinaryStorage) deliveryURL(resourceType, publicID, transformation, format string) string {
	u := fmt.Sprintf("%s/%s/%s/upload", s.deliveryBaseURL, s.cloudName, resourceType)
	if transformation != "" {
		u += "/" + transformation
	}
	u += "/" + publicID
	if format != "" {
		u += "." + format
	}
	return u
}

func (s *cloudinaryStorage) CloudName() string { return s.cloudName }

func (s *cloudinaryStorage) APIKey() string { return s.apiKey }
