package entity

import "time"

// TrackingRecord сохранённый результат сравнения для истории пользователя
type TrackingRecord struct {
	ID               string
	UserID           string
	PatientName      string
	Gender           string
	Age              int
	ElapsedWeeks     float64
	TreatmentLabel   string
	BeforeArea       float64
	AfterArea        float64
	PercentBefore    float64
	PercentAfter     float64
	ChangePercentage float64
	RateOfChange     float64
	CreatedAt        time.Time
}

// NewTrackingRecord строит запись истории из результата конвейера
func NewTrackingRecord(id, userID string, out *TrackingOutcome, at time.Time) *TrackingRecord {
	return &TrackingRecord{
		ID:               id,
		UserID:           userID,
		PatientName:      out.Patient.Name,
		Gender:           out.Patient.Gender,
		Age:              out.Patient.Age,
		ElapsedWeeks:     out.ElapsedWeeks,
		TreatmentLabel:   out.Result.TreatmentLabel,
		BeforeArea:       out.Result.BeforeArea,
		AfterArea:        out.Result.AfterArea,
		PercentBefore:    out.Progression.PercentBefore,
		PercentAfter:     out.Progression.PercentAfter,
		ChangePercentage: out.Result.ChangePercentage,
		RateOfChange:     out.Result.RateOfChange,
		CreatedAt:        at,
	}
}
