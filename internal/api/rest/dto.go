package rest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	app "vitiligo-tracker/internal/application"
	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
	"vitiligo-tracker/internal/infrastructure/vision"
)

// TrackingRequest JSON-контракт: снимки в base64, метаданные пациента
type TrackingRequest struct {
	BeforeImage string  `json:"before_image"`
	AfterImage  string  `json:"after_image"`
	Age         int     `json:"age"`
	Weeks       float64 `json:"weeks"`
	Name        string  `json:"name,omitempty"`
	Gender      string  `json:"gender,omitempty"`
}

// UnmarshalJSON age и weeks принимаются числом или строкой ("30", "4,5")
func (r *TrackingRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		BeforeImage string          `json:"before_image"`
		AfterImage  string          `json:"after_image"`
		Age         json.RawMessage `json:"age"`
		Weeks       json.RawMessage `json:"weeks"`
		Name        string          `json:"name"`
		Gender      string          `json:"gender"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.NewInvalidInputError("invalid request format", err)
	}

	age, err := parseNumber(raw.Age, "age", app.ParseAge)
	if err != nil {
		return err
	}
	weeks, err := parseNumber(raw.Weeks, "weeks", app.ParseWeeks)
	if err != nil {
		return err
	}

	*r = TrackingRequest{
		BeforeImage: raw.BeforeImage,
		AfterImage:  raw.AfterImage,
		Age:         age,
		Weeks:       weeks,
		Name:        raw.Name,
		Gender:      raw.Gender,
	}
	return nil
}

func parseNumber[T int | float64](v json.RawMessage, field string, parse func(string) (T, error)) (T, error) {
	text, ok, err := numberText(v, field)
	if err != nil || !ok {
		return 0, err
	}
	return parse(text)
}

// numberText текст числа из JSON-числа или JSON-строки; отсутствие и null — ok=false
func numberText(v json.RawMessage, field string) (string, bool, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", false, nil
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false, apperrors.NewInvalidInputError(field+" must be a number", err)
		}
		return s, true, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", false, apperrors.NewInvalidInputError(field+" must be a number", err)
	}
	return n.String(), true, nil
}

// Input декодирует base64 и собирает вход конвейера
func (r *TrackingRequest) Input() (entity.TrackingInput, error) {
	if r.BeforeImage == "" || r.AfterImage == "" {
		return entity.TrackingInput{}, apperrors.NewInvalidInputError("both before_image and after_image are required", nil)
	}
	before, err := vision.DecodeBase64(r.BeforeImage)
	if err != nil {
		return entity.TrackingInput{}, err
	}
	after, err := vision.DecodeBase64(r.AfterImage)
	if err != nil {
		return entity.TrackingInput{}, err
	}
	return entity.TrackingInput{
		Patient:      entity.Patient{Name: r.Name, Gender: r.Gender, Age: r.Age},
		BeforeImage:  before,
		AfterImage:   after,
		ElapsedWeeks: r.Weeks,
	}, nil
}

// TrackingResponse результат прогона в формате исходного скрипта плюс проценты и оверлеи
type TrackingResponse struct {
	Status                  string  `json:"status"`
	RunID                   string  `json:"run_id"`
	Name                    string  `json:"name,omitempty"`
	Gender                  string  `json:"gender,omitempty"`
	Age                     int     `json:"age"`
	Weeks                   float64 `json:"weeks"`
	BeforeArea              float64 `json:"before_area"`
	AfterArea               float64 `json:"after_area"`
	ReferenceArea           float64 `json:"reference_area"`
	PercentBefore           float64 `json:"percent_before"`
	PercentAfter            float64 `json:"percent_after"`
	ChangePercentage        float64 `json:"change_percentage"`
	SpeedRate               float64 `json:"speed_rate"`
	TreatmentRecommendation string  `json:"treatment_recommendation"`
	BeforeOverlay           string  `json:"before_overlay,omitempty"`
	AfterOverlay            string  `json:"after_overlay,omitempty"`
}

// NewTrackingResponse собирает ответ; при withOverlays оверлеи кодируются в PNG/base64
func NewTrackingResponse(out *entity.TrackingOutcome, withOverlays bool) (*TrackingResponse, error) {
	resp := &TrackingResponse{
		Status:                  "success",
		RunID:                   out.RunID,
		Name:                    out.Patient.Name,
		Gender:                  out.Patient.Gender,
		Age:                     out.Patient.Age,
		Weeks:                   out.ElapsedWeeks,
		BeforeArea:              out.Result.BeforeArea,
		AfterArea:               out.Result.AfterArea,
		ReferenceArea:           out.ReferenceArea,
		PercentBefore:           out.Progression.PercentBefore,
		PercentAfter:            out.Progression.PercentAfter,
		ChangePercentage:        out.Result.ChangePercentage,
		SpeedRate:               out.Result.RateOfChange,
		TreatmentRecommendation: out.Result.TreatmentLabel,
	}
	if !withOverlays {
		return resp, nil
	}

	var err error
	if resp.BeforeOverlay, err = overlayBase64(out.Before.Overlay); err != nil {
		return nil, err
	}
	if resp.AfterOverlay, err = overlayBase64(out.After.Overlay); err != nil {
		return nil, err
	}
	return resp, nil
}

func overlayBase64(img *entity.RasterImage) (string, error) {
	if img == nil {
		return "", nil
	}
	data, err := vision.EncodePNG(img)
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode overlay", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewErrorResponse строит тело ошибки; неклассифицированные ошибки — internal
func NewErrorResponse(err error) ErrorResponse {
	kind, ok := apperrors.KindOf(err)
	if !ok {
		kind = apperrors.KindInternal
	}
	return ErrorResponse{Status: "error", Kind: string(kind), Message: err.Error()}
}

// HistoryItem одна запись истории
type HistoryItem struct {
	ID                      string  `json:"id"`
	CreatedAt               string  `json:"created_at"`
	Name                    string  `json:"name,omitempty"`
	Age                     int     `json:"age"`
	Weeks                   float64 `json:"weeks"`
	BeforeArea              float64 `json:"before_area"`
	AfterArea               float64 `json:"after_area"`
	ChangePercentage        float64 `json:"change_percentage"`
	SpeedRate               float64 `json:"speed_rate"`
	TreatmentRecommendation string  `json:"treatment_recommendation"`
}

// HistoryResponse история пользователя
type HistoryResponse struct {
	Items         []HistoryItem `json:"items"`
	MeanSpeedRate float64       `json:"mean_speed_rate"`
}
