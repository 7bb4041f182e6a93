package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/satriahrh/gspeech/domain"
	"github.com/satriahrh/gspeech/domain/entities"
	"github.com/satriahrh/gspeech/internal/auth"
	"github.com/satriahrh/gspeech/internal/metrics"
	"github.com/satriahrh/gspeech/usecase"
)

const uploadField = "audio"

// Dependencies holds what the routes need. A nil Tokens disables
// authentication on /api/v1.
type Dependencies struct {
	Service   *usecase.TranscriptionService
	Fs        afero.Fs
	UploadDir string
	Tokens    *auth.TokenManager
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies) {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "gspeech",
		})
	})

	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	if deps.Tokens != nil {
		v1.Use(bearerAuth(deps.Tokens, deps.Logger))
	} else {
		deps.Logger.Warn("JWT secret not set, API is unauthenticated")
	}

	v1.POST("/transcriptions", func(c echo.Context) error {
		return transcribeUpload(c, deps)
	})
}

// transcribeUpload stages the uploaded audio file and transcribes it
func transcribeUpload(c echo.Context, deps Dependencies) error {
	logger := deps.Logger

	header, err := c.FormFile(uploadField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_audio",
			Message: "Multipart field 'audio' is required",
		})
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if entities.EncodingForExtension(ext) == entities.EncodingUnspecified {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_audio",
			Message: "Supported extensions are .flac, .mp3, .ogg, .wav and .pcm",
		})
	}

	src, err := header.Open()
	if err != nil {
		logger.Error("Failed to open upload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_upload",
			Message: "Failed to read uploaded file",
		})
	}
	defer src.Close()

	staged := filepath.Join(deps.UploadDir, uuid.NewString()+ext)
	if err := afero.WriteReader(deps.Fs, staged, src); err != nil {
		logger.Error("Failed to stage upload", zap.String("path", staged), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "staging_failed",
			Message: "Failed to store uploaded file",
		})
	}
	// backends normally remove the file themselves
	defer deps.Fs.Remove(staged)

	deps.Metrics.RecordUpload(header.Size)

	msg, err := deps.Service.TranscribeFile(c.Request().Context(), staged)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedResponse) {
			return c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "malformed_response",
				Message: msg.Error,
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "transcription_failed",
			Message: "Failed to transcribe audio",
		})
	}

	return c.JSON(http.StatusOK, newTranscriptionResponse(msg, header.Filename))
}

// bearerAuth rejects requests without a valid client token
func bearerAuth(tokens *auth.TokenManager, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string
			authHeader := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}

			if token == "" {
				logger.Warn("Request rejected: missing token")
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required in Authorization header",
				})
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				logger.Warn("Request rejected: invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}

			if claims.Role != auth.RoleClient {
				logger.Warn("Request rejected: invalid role", zap.String("role", claims.Role))
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "invalid_role",
					Message: "Only client tokens are allowed",
				})
			}

			c.Set("client_id", claims.ClientID)
			return next(c)
		}
	}
}
