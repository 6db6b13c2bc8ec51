package rest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	app "vitiligo-tracker/internal/application"
	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/infrastructure/model"
	"vitiligo-tracker/internal/infrastructure/storage"
	"vitiligo-tracker/internal/infrastructure/vision"
)

const testJWTSecret = "test-secret"

func pngWithSquare(t *testing.T, side int) []byte {
	t.Helper()
	img := entity.NewRasterImage(100, 100, entity.OrderRGB)
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	for y := 10; y < 10+side; y++ {
		for x := 10; x < 10+side; x++ {
			img.SetRGB(x, y, 240, 240, 240)
		}
	}
	data, err := vision.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func newTestRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := model.Load(filepath.Join("..", "..", "infrastructure", "model", "testdata", "bundle.yaml"))
	require.NoError(t, err)
	classifier, err := app.NewTreatmentClassifier(m)
	require.NoError(t, err)

	opts := vision.RawOptions()
	seg, err := vision.NewNativeSegmenter(opts)
	require.NoError(t, err)

	tracker := app.NewTrackingService(vision.NewNativeDecoder(), seg, vision.NewNativeQuantifier(opts), classifier)
	history := app.NewHistoryService(storage.NewMemoryHistoryRepository(), 10)
	return NewRouter(NewHandler(tracker, history, nil), secret)
}

func jsonBody(t *testing.T, req TrackingRequest) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func validRequest(t *testing.T) TrackingRequest {
	return TrackingRequest{
		BeforeImage: base64.StdEncoding.EncodeToString(pngWithSquare(t, 40)),
		AfterImage:  base64.StdEncoding.EncodeToString(pngWithSquare(t, 20)),
		Age:         30,
		Weeks:       4,
		Name:        "Anna",
	}
}

func buildTestToken(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func TestTrack_JSON(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/tracking", jsonBody(t, validRequest(t)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var body TrackingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "success", body.Status)
	require.Equal(t, "Anna", body.Name)
	require.InDelta(t, 1521.0, body.BeforeArea, 1e-9)
	require.InDelta(t, 361.0, body.AfterArea, 1e-9)
	require.InDelta(t, (361.0-1521.0)/1521.0*100/4, body.SpeedRate, 1e-9)
	require.Equal(t, "Continue current treatment", body.TreatmentRecommendation)
	require.Empty(t, body.BeforeOverlay)
}

func TestTrack_MultipartWithOverlays(t *testing.T) {
	router := newTestRouter(t, "")

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for field, data := range map[string][]byte{"beforeImage": pngWithSquare(t, 40), "afterImage": pngWithSquare(t, 20)} {
		part, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("age", "30"))
	require.NoError(t, w.WriteField("weeks", "4,0"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tracking?overlays=true", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out TrackingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.InDelta(t, 4.0, out.Weeks, 1e-9)

	overlay, err := base64.StdEncoding.DecodeString(out.BeforeOverlay)
	require.NoError(t, err)
	img, err := vision.NewNativeDecoder().Decode(overlay)
	require.NoError(t, err)
	require.Equal(t, 100, img.Width)
	require.NotEmpty(t, out.AfterOverlay)
}

func TestTrack_MissingImage(t *testing.T) {
	router := newTestRouter(t, "")

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("beforeImage", "before.png")
	require.NoError(t, err)
	_, err = part.Write(pngWithSquare(t, 10))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tracking", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, "error", out.Status)
	require.Equal(t, "invalid_input", out.Kind)
}

func TestTrack_ErrorKinds(t *testing.T) {
	router := newTestRouter(t, "")

	notImage := validRequest(t)
	notImage.AfterImage = base64.StdEncoding.EncodeToString([]byte("definitely not an image"))

	missing := validRequest(t)
	missing.BeforeImage = ""

	negative := validRequest(t)
	negative.Weeks = -1

	cases := []struct {
		name   string
		req    TrackingRequest
		status int
		kind   string
	}{
		{"corrupt image", notImage, http.StatusUnprocessableEntity, "decode"},
		{"missing image", missing, http.StatusBadRequest, "invalid_input"},
		{"negative weeks", negative, http.StatusBadRequest, "invalid_input"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/tracking", jsonBody(t, tc.req))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, tc.status, resp.Code, tc.name)
		var out ErrorResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		require.Equal(t, tc.kind, out.Kind, tc.name)
	}
}

func TestTrack_RequiresTokenWhenSecretSet(t *testing.T) {
	router := newTestRouter(t, testJWTSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/tracking", jsonBody(t, validRequest(t)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/tracking/history", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestHistory_PerSubject(t *testing.T) {
	router := newTestRouter(t, testJWTSecret)
	alice, bob := buildTestToken(t, "alice"), buildTestToken(t, "bob")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/tracking", jsonBody(t, validRequest(t)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+alice)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	history := func(token string) HistoryResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/tracking/history", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var out HistoryResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		return out
	}

	got := history(alice)
	require.Len(t, got.Items, 2)
	require.Equal(t, "Anna", got.Items[0].Name)
	require.InDelta(t, (361.0-1521.0)/1521.0*100/4, got.MeanSpeedRate, 1e-9)

	require.Empty(t, history(bob).Items)
}

func TestTrack_JSONAcceptsNumericStrings(t *testing.T) {
	router := newTestRouter(t, "")
	r := validRequest(t)
	body := `{"before_image":"` + r.BeforeImage + `","after_image":"` + r.AfterImage + `","age":"30","weeks":"4"}`

	req := httptest.NewRequest(http.MethodPost, "/api/tracking", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out TrackingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, 30, out.Age)
	require.InDelta(t, 4.0, out.Weeks, 1e-9)
	require.Equal(t, "Continue current treatment", out.TreatmentRecommendation)
}
