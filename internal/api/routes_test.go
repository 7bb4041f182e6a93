package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/gspeech/adapters/stt"
	"github.com/satriahrh/gspeech/domain"
	"github.com/satriahrh/gspeech/domain/entities"
	"github.com/satriahrh/gspeech/domain/repositories"
	"github.com/satriahrh/gspeech/internal/auth"
	"github.com/satriahrh/gspeech/internal/metrics"
	"github.com/satriahrh/gspeech/usecase"
)

type failingTranscriber struct{ err error }

func (f failingTranscriber) Transcribe(ctx context.Context, path string) (*entities.Outcome, error) {
	return nil, f.err
}

type testServer struct {
	echo    *echo.Echo
	fs      afero.Fs
	metrics *metrics.Metrics
}

func setupServer(t *testing.T, tokens *auth.TokenManager, backend repositories.Transcriber) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	fs := afero.NewMemMapFs()
	m := metrics.NewMetrics()

	if backend == nil {
		backend = stt.NewMockTranscriber(stt.Options{MinConfidence: 0.5}, stt.Deps{Fs: fs, Logger: logger, Metrics: m})
	}

	e := echo.New()
	InitRoutes(e, Dependencies{
		Service:   usecase.NewTranscriptionService(backend, 1, logger),
		Fs:        fs,
		UploadDir: "/uploads",
		Tokens:    tokens,
		Metrics:   m,
		Logger:    logger,
	})
	return &testServer{echo: e, fs: fs, metrics: m}
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := setupServer(t, nil, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Expected ok status, got %s", rec.Body.String())
	}
}

func TestTranscribeUpload(t *testing.T) {
	s := setupServer(t, nil, nil)

	rec := s.do(uploadRequest(t, "audio", "clip.wav", make([]byte, 20000)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TranscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Found || resp.Transcript != "Hello there, how's it going today?" {
		t.Errorf("Expected mock transcript, got %+v", resp)
	}
	if resp.File != "clip.wav" {
		t.Errorf("Expected original file name, got %s", resp.File)
	}
	if resp.RequestID == "" {
		t.Error("Expected request ID")
	}

	files, _ := afero.ReadDir(s.fs, "/uploads")
	if len(files) != 0 {
		t.Errorf("Expected staged uploads to be removed, found %d", len(files))
	}

	metricsRec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(metricsRec.Body.String(), "gspeech_uploads_total 1") {
		t.Errorf("Expected upload counter in metrics, got %s", metricsRec.Body.String())
	}
}

func TestTranscribeUpload_NothingFound(t *testing.T) {
	s := setupServer(t, nil, nil)

	rec := s.do(uploadRequest(t, "audio", "quiet.flac", []byte("tiny")))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"found":false`) {
		t.Errorf("Expected found false, got %s", rec.Body.String())
	}
}

func TestTranscribeUpload_BadRequests(t *testing.T) {
	s := setupServer(t, nil, nil)

	rec := s.do(uploadRequest(t, "file", "clip.wav", []byte("audio")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing field, got %d", rec.Code)
	}

	rec = s.do(uploadRequest(t, "audio", "notes.txt", []byte("audio")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unsupported extension, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported_audio") {
		t.Errorf("Expected unsupported_audio error, got %s", rec.Body.String())
	}
}

func TestTranscribeUpload_MalformedResponse(t *testing.T) {
	payload := "{\n    \"error\": {}\n}"
	s := setupServer(t, nil, failingTranscriber{err: &domain.MalformedResponseError{Payload: payload}})

	rec := s.do(uploadRequest(t, "audio", "clip.flac", []byte("audio")))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error != "malformed_response" || !strings.Contains(resp.Message, payload) {
		t.Errorf("Expected payload in the error message, got %+v", resp)
	}
}

func TestTranscribeUpload_BackendFailure(t *testing.T) {
	s := setupServer(t, nil, failingTranscriber{err: afero.ErrFileNotFound})

	rec := s.do(uploadRequest(t, "audio", "clip.flac", []byte("audio")))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	tokens, err := auth.NewTokenManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}
	s := setupServer(t, tokens, nil)

	// missing token
	rec := s.do(uploadRequest(t, "audio", "clip.wav", make([]byte, 20000)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", rec.Code)
	}

	// invalid token
	req := uploadRequest(t, "audio", "clip.wav", make([]byte, 20000))
	req.Header.Set("Authorization", "Bearer not-a-token")
	if rec := s.do(req); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for invalid token, got %d", rec.Code)
	}

	// wrong role
	deviceToken := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.JWTClaims{
		ClientID: "speaker-1",
		Role:     "device",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := deviceToken.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	req = uploadRequest(t, "audio", "clip.wav", make([]byte, 20000))
	req.Header.Set("Authorization", "Bearer "+signed)
	if rec := s.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non client role, got %d", rec.Code)
	}

	// valid client token
	token, err := tokens.GenerateClientToken("subtitle-worker")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	req = uploadRequest(t, "audio", "clip.wav", make([]byte, 20000))
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := s.do(req); rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 with client token, got %d: %s", rec.Code, rec.Body.String())
	}

	// health stays public
	if rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("Expected public health check, got %d", rec.Code)
	}
}
