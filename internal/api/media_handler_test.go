package api

import (
	"bytes"
	"clipforge/media-app/internal/domain"
	"clipforge/media-app/internal/repository"
	"clipforge/media-app/internal/service"
	"clipforge/media-app/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testJWTSecret = "test-secret"

// --- Fakes ---

type fakeVideoRepo struct {
	created     []domain.Video
	createCalls int
	listCalls   int
}

func (f *fakeVideoRepo) Create(_ context.Context, video *domain.Video) (primitive.ObjectID, error) {
	f.createCalls++
	video.ID = primitive.NewObjectID()
	video.CreatedAt = time.Now().UTC()
	f.created = append(f.created, *video)
	return video.ID, nil
}

func (f *fakeVideoRepo) GetByID(_ context.Context, _ primitive.ObjectID) (*domain.Video, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeVideoRepo) List(_ context.Context) ([]domain.Video, error) {
	f.listCalls++
	return f.created, nil
}

type fakeStorage struct {
	uploadResult *storage.UploadResult
	uploadErr    error
	uploadCalls  int
}

func (f *fakeStorage) UploadImage(_ context.Context, _ string, file io.Reader) (*storage.UploadResult, error) {
	return f.upload(file)
}

func (f *fakeStorage) UploadVideo(_ context.Context, _ string, file io.Reader) (*storage.UploadResult, error) {
	return f.upload(file)
}

func (f *fakeStorage) upload(file io.Reader) (*storage.UploadResult, error) {
	f.uploadCalls++
	_, _ = io.ReadAll(file)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadResult, nil
}

func (f *fakeStorage) SignUploadParams(params url.Values) (string, error) {
	return "sig:" + params.Encode(), nil
}

func (f *fakeStorage) ImageURL(publicID, transformation, format string) string {
	return fmt.Sprintf("https://cdn.test/image/%s/%s.%s", transformation, publicID, format)
}

func (f *fakeStorage) VideoURL(publicID, transformation, format string) string {
	return fmt.Sprintf("https://cdn.test/video/%s/%s.%s", transformation, publicID, format)
}

func (f *fakeStorage) CloudName() string { return "demo-cloud" }
func (f *fakeStorage) APIKey() string    { return "key-123" }

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if _, ok := f.byEmail[user.Email]; ok {
		return primitive.NilObjectID, repository.ErrConflict
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	stored := *user
	f.byEmail[user.Email] = &stored
	return user.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ primitive.ObjectID) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

// --- Helpers ---

type testEnv struct {
	router  *gin.Engine
	repo    *fakeVideoRepo
	storage *fakeStorage
}

// newTestEnv wires the real services and routes over in-memory fakes.
// A nil storage simulates missing provider credentials.
func newTestEnv(t *testing.T, st *fakeStorage) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &fakeVideoRepo{}
	var mediaStorage storage.MediaStorage
	if st != nil {
		mediaStorage = st
	}
	mediaService := service.NewMediaService(repo, mediaStorage, "image-uploads", "video-uploads")
	authService := service.NewAuthService(&fakeUserRepo{byEmail: map[string]*domain.User{}}, testJWTSecret, time.Hour)

	router := gin.New()
	SetupRoutes(router, testJWTSecret, []string{"http://localhost:3000"}, authService, mediaService)

	return &testEnv{router: router, repo: repo, storage: st}
}

func mintToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid": primitive.NewObjectID().Hex(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func multipartBody(t *testing.T, fields map[string]string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileContent != nil {
		part, err := writer.CreateFormFile("file", "upload.bin")
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestProtectedEndpoints_Unauthenticated(t *testing.T) {
	st := &fakeStorage{uploadResult: &storage.UploadResult{PublicID: "abc123"}}
	env := newTestEnv(t, st)

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/media/images"},
		{http.MethodPost, "/api/v1/media/videos"},
		{http.MethodPost, "/api/v1/media/signature"},
		{http.MethodGet, "/api/v1/media/videos"},
		{http.MethodGet, "/api/v1/media/presets"},
		{http.MethodGet, "/api/v1/media/render"},
	}

	for _, ep := range endpoints {
		rec := env.do(t, ep.method, ep.path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", ep.method, ep.path)
	}

	// No storage or database call may precede the identity check.
	assert.Zero(t, st.uploadCalls)
	assert.Zero(t, env.repo.createCalls)
	assert.Zero(t, env.repo.listCalls)
}

func TestUploadImage_OK(t *testing.T) {
	st := &fakeStorage{uploadResult: &storage.UploadResult{PublicID: "image-uploads/img42"}}
	env := newTestEnv(t, st)

	body, contentType := multipartBody(t, nil, []byte("fake image bytes"))
	rec := env.do(t, http.MethodPost, "/api/v1/media/images", mintToken(t), body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ImageUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PublicID)
	assert.Equal(t, "image-uploads/img42", resp.PublicID)
}

func TestUploadImage_ProviderFailure_GenericError(t *testing.T) {
	st := &fakeStorage{uploadErr: errors.New("connection reset by provider")}
	env := newTestEnv(t, st)

	body, contentType := multipartBody(t, nil, []byte("img"))
	rec := env.do(t, http.MethodPost, "/api/v1/media/images", mintToken(t), body, contentType)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal detail stays server-side.
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Contains(t, rec.Body.String(), "Upload image failed")
}

func TestUploadVideo_OK(t *testing.T) {
	st := &fakeStorage{uploadResult: &storage.UploadResult{
		PublicID: "video-uploads/abc123",
		Bytes:    500000,
		Duration: 12.3,
	}}
	env := newTestEnv(t, st)

	fields := map[string]string{
		"title":        "t",
		"description":  "d",
		"originalSize": "2048",
	}
	body, contentType := multipartBody(t, fields, []byte("fake video bytes"))
	rec := env.do(t, http.MethodPost, "/api/v1/media/videos", mintToken(t), body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var video domain.Video
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &video))
	assert.Equal(t, "t", video.Title)
	assert.Equal(t, "d", video.Description)
	assert.Equal(t, "video-uploads/abc123", video.PublicID)
	assert.Equal(t, "2048", video.OriginalSize)
	assert.Equal(t, "500000", video.CompressedSize)
	assert.Equal(t, 12.3, video.Duration)
	assert.False(t, video.ID.IsZero())

	require.Equal(t, 1, env.repo.createCalls)
}

func TestUploadVideo_MissingFile(t *testing.T) {
	st := &fakeStorage{}
	env := newTestEnv(t, st)

	body, contentType := multipartBody(t, map[string]string{"title": "t"}, nil)
	rec := env.do(t, http.MethodPost, "/api/v1/media/videos", mintToken(t), body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file uploaded")
	assert.Zero(t, st.uploadCalls)
	assert.Zero(t, env.repo.createCalls)
}

func TestUploadVideo_CredentialsNotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := multipartBody(t, nil, []byte("video"))
	rec := env.do(t, http.MethodPost, "/api/v1/media/videos", mintToken(t), body, contentType)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "credentials not configured")
	assert.Zero(t, env.repo.createCalls)
}

func TestCreateSignature_OK(t *testing.T) {
	env := newTestEnv(t, &fakeStorage{})

	rec := env.do(t, http.MethodPost, "/api/v1/media/signature", mintToken(t),
		bytes.NewReader([]byte(`{"folder":"my-folder"}`)), "application/json")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var signed service.SignedUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signed))
	assert.Equal(t, "demo-cloud", signed.CloudName)
	assert.Equal(t, "key-123", signed.APIKey)
	assert.Equal(t, "my-folder", signed.Folder)
	assert.NotZero(t, signed.Timestamp)
	assert.NotEmpty(t, signed.Signature)
	assert.Equal(t, "video", signed.Params["resource_type"])
	assert.Equal(t, "q_auto:good,f_mp4", signed.Params["eager"])
}

func TestCreateSignature_DefaultFolder(t *testing.T) {
	env := newTestEnv(t, &fakeStorage{})

	rec := env.do(t, http.MethodPost, "/api/v1/media/signature", mintToken(t), nil, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var signed service.SignedUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signed))
	assert.Equal(t, "video-uploads", signed.Folder)
}

func TestCreateSignature_CredentialsNotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/media/signature", mintToken(t), nil, "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "credentials not configured")
}

func TestListVideos_EmptyAndPopulated(t *testing.T) {
	st := &fakeStorage{uploadResult: &storage.UploadResult{PublicID: "video-uploads/v1", Bytes: 10}}
	env := newTestEnv(t, st)
	token := mintToken(t)

	rec := env.do(t, http.MethodGet, "/api/v1/media/videos", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	body, contentType := multipartBody(t, map[string]string{"title": "clip"}, []byte("v"))
	rec = env.do(t, http.MethodPost, "/api/v1/media/videos", token, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/media/videos", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listings []service.VideoListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, "clip", listings[0].Title)
	assert.NotEmpty(t, listings[0].ThumbnailURL)
	assert.NotEmpty(t, listings[0].DownloadURL)
}

func TestGetPresets(t *testing.T) {
	env := newTestEnv(t, &fakeStorage{})

	rec := env.do(t, http.MethodGet, "/api/v1/media/presets", mintToken(t), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var presets []domain.SocialFormat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	require.Len(t, presets, 5)
	assert.Equal(t, 1080, presets[0].Width)
}

func TestRenderImage(t *testing.T) {
	env := newTestEnv(t, &fakeStorage{})
	token := mintToken(t)

	rec := env.do(t, http.MethodGet,
		"/api/v1/media/render?publicId=img42&format=Twitter+Post+(16%3A9)", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rendered service.RenderedImage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rendered))
	assert.Equal(t, 1200, rendered.Width)
	assert.Equal(t, 675, rendered.Height)
	assert.Contains(t, rendered.URL, "img42.png")

	rec = env.do(t, http.MethodGet,
		"/api/v1/media/render?publicId=img42&format=Nope", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/media/render?publicId=img42", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
