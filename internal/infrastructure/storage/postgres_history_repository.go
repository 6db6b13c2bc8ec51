package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
)

// TrackingRow строка таблицы tracking_history
type TrackingRow struct {
	ID               string    `gorm:"primaryKey;size:36"`
	UserID           string    `gorm:"column:user_id;index;size:64"`
	PatientName      string    `gorm:"column:patient_name;size:128"`
	Gender           string    `gorm:"column:gender;size:32"`
	Age              int       `gorm:"column:age"`
	ElapsedWeeks     float64   `gorm:"column:elapsed_weeks"`
	TreatmentLabel   string    `gorm:"column:treatment_label;size:128"`
	BeforeArea       float64   `gorm:"column:before_area"`
	AfterArea        float64   `gorm:"column:after_area"`
	PercentBefore    float64   `gorm:"column:percent_before"`
	PercentAfter     float64   `gorm:"column:percent_after"`
	ChangePercentage float64   `gorm:"column:change_percentage"`
	RateOfChange     float64   `gorm:"column:rate_of_change"`
	CreatedAt        time.Time `gorm:"column:created_at;index"`
}

// TableName переопределяет имя таблицы
func (TrackingRow) TableName() string {
	return "tracking_history"
}

func rowFromRecord(r *entity.TrackingRecord) *TrackingRow {
	return &TrackingRow{
		ID:               r.ID,
		UserID:           r.UserID,
		PatientName:      r.PatientName,
		Gender:           r.Gender,
		Age:              r.Age,
		ElapsedWeeks:     r.ElapsedWeeks,
		TreatmentLabel:   r.TreatmentLabel,
		BeforeArea:       r.BeforeArea,
		AfterArea:        r.AfterArea,
		PercentBefore:    r.PercentBefore,
		PercentAfter:     r.PercentAfter,
		ChangePercentage: r.ChangePercentage,
		RateOfChange:     r.RateOfChange,
		CreatedAt:        r.CreatedAt,
	}
}

func (row *TrackingRow) record() *entity.TrackingRecord {
	return &entity.TrackingRecord{
		ID:               row.ID,
		UserID:           row.UserID,
		PatientName:      row.PatientName,
		Gender:           row.Gender,
		Age:              row.Age,
		ElapsedWeeks:     row.ElapsedWeeks,
		TreatmentLabel:   row.TreatmentLabel,
		BeforeArea:       row.BeforeArea,
		AfterArea:        row.AfterArea,
		PercentBefore:    row.PercentBefore,
		PercentAfter:     row.PercentAfter,
		ChangePercentage: row.ChangePercentage,
		RateOfChange:     row.RateOfChange,
		CreatedAt:        row.CreatedAt,
	}
}

// PostgresHistoryRepository история сравнений в PostgreSQL через gorm
type PostgresHistoryRepository struct {
	db *gorm.DB
}

// OpenPostgres подключается к базе по DSN
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return db, nil
}

// NewPostgresHistoryRepository создаёт репозиторий поверх открытого соединения
func NewPostgresHistoryRepository(db *gorm.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// AutoMigrate создаёт или обновляет схему
func (r *PostgresHistoryRepository) AutoMigrate(ctx context.Context) error {
	return errors.Wrap(r.db.WithContext(ctx).AutoMigrate(&TrackingRow{}), "migrate tracking_history")
}

func (r *PostgresHistoryRepository) Save(ctx context.Context, record *entity.TrackingRecord) error {
	if err := r.db.WithContext(ctx).Create(rowFromRecord(record)).Error; err != nil {
		return errors.Wrap(err, "insert tracking record")
	}
	return nil
}

func (r *PostgresHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.TrackingRecord, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []TrackingRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "select tracking records")
	}

	out := make([]*entity.TrackingRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].record())
	}
	return out, nil
}

var _ port.HistoryRepository = (*PostgresHistoryRepository)(nil)
