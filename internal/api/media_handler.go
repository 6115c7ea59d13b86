package api

import (
	"clipforge/media-app/internal/service"
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MediaHandler holds the media workflow service dependency.
type MediaHandler struct {
	mediaService service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// --- DTOs ---

type ImageUploadResponse struct {
	PublicID string `json:"publicId"`
}

type SignatureRequest struct {
	Folder string `json:"folder"`
}

// --- Handler Methods ---

// UploadImage accepts a multipart image payload, relays it to the media
// provider and returns the issued asset identifier.
func (h *MediaHandler) UploadImage(c *gin.Context) {
	file := openFormFile(c)
	if file == nil {
		abortWithError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	publicID, err := h.mediaService.UploadImage(c.Request.Context(), file)
	if err != nil {
		log.Printf("ERROR: image upload failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, "Upload image failed")
		return
	}

	c.JSON(http.StatusOK, ImageUploadResponse{PublicID: publicID})
}

// UploadVideo accepts a multipart video payload plus metadata fields, relays
// the payload to the media provider and persists one video record. The
// credentials check runs before the file check, so an unconfigured server
// answers 500 regardless of the payload.
func (h *MediaHandler) UploadVideo(c *gin.Context) {
	in := service.VideoUploadInput{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		OriginalSize: c.PostForm("originalSize"),
	}

	// A missing file is reported by the service after the credentials
	// check; pass a nil reader rather than failing here.
	if file := openFormFile(c); file != nil {
		defer file.Close()
		in.File = file
	}

	video, err := h.mediaService.UploadVideo(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStorageNotConfigured):
			abortWithError(c, http.StatusInternalServerError, "Media storage credentials not configured")
		case errors.Is(err, service.ErrNoFile):
			abortWithError(c, http.StatusBadRequest, "No file uploaded")
		default:
			// Provider and database detail stays in the server log.
			log.Printf("ERROR: video upload failed: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Upload video failed")
		}
		return
	}

	c.JSON(http.StatusOK, video)
}

// CreateSignature returns a time-boxed signed parameter set authorizing one
// direct upload to the provider.
func (h *MediaHandler) CreateSignature(c *gin.Context) {
	var req SignatureRequest
	// Body is optional; an empty or absent body means the default folder.
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	signed, err := h.mediaService.SignUpload(c.Request.Context(), req.Folder)
	if err != nil {
		if errors.Is(err, service.ErrStorageNotConfigured) {
			abortWithError(c, http.StatusInternalServerError, "Media storage credentials not configured")
		} else {
			log.Printf("ERROR: signature creation failed: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to create signature")
		}
		return
	}

	c.JSON(http.StatusOK, signed)
}

// ListVideos returns all uploaded videos, newest first, with delivery URLs.
func (h *MediaHandler) ListVideos(c *gin.Context) {
	listings, err := h.mediaService.ListVideos(c.Request.Context())
	if err != nil {
		log.Printf("ERROR: listing videos failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve videos")
		return
	}

	if listings == nil {
		c.JSON(http.StatusOK, []service.VideoListing{})
		return
	}
	c.JSON(http.StatusOK, listings)
}

// GetPresets returns the social format catalog.
func (h *MediaHandler) GetPresets(c *gin.Context) {
	c.JSON(http.StatusOK, h.mediaService.Presets())
}

// RenderImage computes the delivery URL of an uploaded image for a chosen
// social format. Query params: publicId, format.
func (h *MediaHandler) RenderImage(c *gin.Context) {
	publicID := c.Query("publicId")
	formatName := c.Query("format")
	if publicID == "" || formatName == "" {
		abortWithError(c, http.StatusBadRequest, "publicId and format are required")
		return
	}

	rendered, err := h.mediaService.RenderImage(publicID, formatName)
	if err != nil {
		if errors.Is(err, service.ErrUnknownFormat) {
			abortWithError(c, http.StatusBadRequest, "Unknown social format")
		} else {
			log.Printf("ERROR: render url failed: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to build render URL")
		}
		return
	}

	c.JSON(http.StatusOK, rendered)
}

// openFormFile extracts the "file" part of a multipart request, or nil when
// it is absent or unreadable.
func openFormFile(c *gin.Context) multipart.File {
	header, err := c.FormFile("file")
	if err != nil {
		return nil
	}
	file, err := header.Open()
	if err != nil {
		return nil
	}
	return file
}
