package rest

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "vitiligo-tracker/internal/application"
	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
)

// MaxUploadSize предел тела запроса: два снимка и метаданные
const MaxUploadSize = 32 << 20

// Handler HTTP-обёртка над конвейером и историей
type Handler struct {
	tracker *app.TrackingService
	history *app.HistoryService
	logger  *zap.Logger
	timeout time.Duration
}

// NewHandler создаёт обработчики; history может быть nil
func NewHandler(tracker *app.TrackingService, history *app.HistoryService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tracker: tracker,
		history: history,
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// NewRouter регистрирует маршруты; пустой jwtSecret отключает авторизацию
func NewRouter(h *Handler, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = MaxUploadSize
	r.Use(gin.Recovery(), requestLogger(h.logger), requestSizeLimiter(MaxUploadSize))

	r.GET("/healthz", healthCheck)

	api := r.Group("/api")
	if jwtSecret != "" {
		api.Use(JWTMiddleware(jwtSecret))
	}
	api.POST("/tracking", h.track)
	api.GET("/tracking/history", h.listHistory)

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// track принимает multipart (beforeImage/afterImage) или JSON с base64
func (h *Handler) track(c *gin.Context) {
	var (
		in  entity.TrackingInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = multipartInput(c)
	} else {
		var req TrackingRequest
		if err = c.ShouldBindJSON(&req); err != nil {
			if _, ok := apperrors.KindOf(err); !ok {
				err = apperrors.NewInvalidInputError("invalid request format", err)
			}
		} else {
			in, err = req.Input()
		}
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.tracker.Track(ctx, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.history != nil {
		if _, err := h.history.Record(ctx, userID(c), out); err != nil {
			h.logger.Warn("save history", zap.String("run_id", out.RunID), zap.Error(err))
		}
	}

	resp, err := NewTrackingResponse(out, c.Query("overlays") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listHistory(c *gin.Context) {
	resp := HistoryResponse{Items: []HistoryItem{}}
	if h.history == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	summary, err := h.history.Summary(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, apperrors.NewInternalError("failed to load history", err))
		return
	}
	for _, r := range summary.Records {
		resp.Items = append(resp.Items, HistoryItem{
			ID:                      r.ID,
			CreatedAt:               r.CreatedAt.Format(time.RFC3339),
			Name:                    r.PatientName,
			Age:                     r.Age,
			Weeks:                   r.ElapsedWeeks,
			BeforeArea:              r.BeforeArea,
			AfterArea:               r.AfterArea,
			ChangePercentage:        r.ChangePercentage,
			SpeedRate:               r.RateOfChange,
			TreatmentRecommendation: r.TreatmentLabel,
		})
	}
	resp.MeanSpeedRate = summary.MeanRate
	c.JSON(http.StatusOK, resp)
}

func multipartInput(c *gin.Context) (entity.TrackingInput, error) {
	before, err := formImage(c, "beforeImage")
	if err != nil {
		return entity.TrackingInput{}, err
	}
	after, err := formImage(c, "afterImage")
	if err != nil {
		return entity.TrackingInput{}, err
	}

	in := entity.TrackingInput{
		Patient:     entity.Patient{Name: c.PostForm("name"), Gender: c.PostForm("gender")},
		BeforeImage: before,
		AfterImage:  after,
	}
	if v := c.PostForm("age"); v != "" {
		if in.Patient.Age, err = app.ParseAge(v); err != nil {
			return entity.TrackingInput{}, err
		}
	}
	if v := c.PostForm("weeks"); v != "" {
		if in.ElapsedWeeks, err = app.ParseWeeks(v); err != nil {
			return entity.TrackingInput{}, err
		}
	}
	return in, nil
}

func formImage(c *gin.Context, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(field+" file is required", err)
	}
	return readFormFile(file)
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, apperrors.NewInvalidInputError("unable to open "+file.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read upload", err)
	}
	return data, nil
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(err))
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
