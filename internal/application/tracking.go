package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/domain/port"
	apperrors "vitiligo-tracker/internal/errors"
)

// TrackingService конвейер: декодирование, сегментация, измерение,
// динамика и классификация для пары снимков
type TrackingService struct {
	decoder    port.ImageDecoder
	segmenter  port.LesionSegmenter
	quantifier port.AreaQuantifier
	classifier *TreatmentClassifier
	observer   port.StageObserver
	parallel   bool
}

// TrackingOption настройка конвейера
type TrackingOption func(*TrackingService)

// WithObserver подключает наблюдателя этапов
func WithObserver(o port.StageObserver) TrackingOption {
	return func(s *TrackingService) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithParallelAnalysis анализирует снимки «до» и «после» одновременно
func WithParallelAnalysis(enabled bool) TrackingOption {
	return func(s *TrackingService) {
		s.parallel = enabled
	}
}

// NewTrackingService собирает конвейер
func NewTrackingService(
	decoder port.ImageDecoder,
	segmenter port.LesionSegmenter,
	quantifier port.AreaQuantifier,
	classifier *TreatmentClassifier,
	opts ...TrackingOption,
) *TrackingService {
	s := &TrackingService{
		decoder:    decoder,
		segmenter:  segmenter,
		quantifier: quantifier,
		classifier: classifier,
		observer:   port.NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// imageRun промежуточный результат по одному снимку
type imageRun struct {
	img     *entity.RasterImage
	seg     *entity.Segmentation
	area    float64
	regions []entity.LesionRegion
}

type side struct {
	decode  entity.Stage
	segment entity.Stage
	label   string
}

var (
	beforeSide = side{decode: entity.StageDecodeBefore, segment: entity.StageSegmentBefore, label: "before"}
	afterSide  = side{decode: entity.StageDecodeAfter, segment: entity.StageSegmentAfter, label: "after"}
)

// Track выполняет все этапы. Первая ошибка прерывает прогон, частичного результата нет.
func (s *TrackingService) Track(ctx context.Context, in entity.TrackingInput) (*entity.TrackingOutcome, error) {
	runID := uuid.NewString()

	if err := s.stage(ctx, runID, entity.StageValidate, func() (map[string]any, error) {
		return nil, validateInput(in)
	}); err != nil {
		return nil, err
	}

	before, after, err := s.analyzePair(ctx, runID, in)
	if err != nil {
		return nil, err
	}

	// Знаменатель динамики: опорная площадь снимка «после».
	// Каждый снимок отдельно нормируется на собственную опорную площадь.
	var reference, beforeReference float64
	if err := s.stage(ctx, runID, entity.StageReference, func() (map[string]any, error) {
		reference = s.quantifier.ReferenceArea(after.img)
		beforeReference = s.quantifier.ReferenceArea(before.img)
		return map[string]any{
			"reference_area":        reference,
			"before_reference_area": beforeReference,
		}, nil
	}); err != nil {
		return nil, err
	}

	var progression entity.Progression
	if err := s.stage(ctx, runID, entity.StageProgression, func() (map[string]any, error) {
		var err error
		progression, err = entity.ComputeProgression(entity.ProgressionInput{
			BeforeArea:    before.area,
			AfterArea:     after.area,
			ReferenceArea: reference,
			ElapsedWeeks:  in.ElapsedWeeks,
		})
		return map[string]any{
			"percent_change": progression.PercentChange,
			"rate_of_change": progression.RateOfChange,
		}, err
	}); err != nil {
		return nil, err
	}

	features := entity.NewProgressionFeatures(in.Patient.Age, in.ElapsedWeeks, progression)
	var label string
	if err := s.stage(ctx, runID, entity.StageClassify, func() (map[string]any, error) {
		var err error
		label, err = s.classifier.Classify(features)
		return map[string]any{"label": label}, err
	}); err != nil {
		return nil, err
	}

	var out *entity.TrackingOutcome
	_ = s.stage(ctx, runID, entity.StageAssemble, func() (map[string]any, error) {
		out = &entity.TrackingOutcome{
			RunID:         runID,
			Patient:       in.Patient,
			ElapsedWeeks:  in.ElapsedWeeks,
			ReferenceArea: reference,
			Before:        analysis(before, beforeReference),
			After:         analysis(after, reference),
			Progression:   progression,
			Features:      features,
			Result: entity.TreatmentResult{
				TreatmentLabel:   label,
				ChangePercentage: progression.PercentChange,
				BeforeArea:       before.area,
				AfterArea:        after.area,
				RateOfChange:     progression.RateOfChange,
			},
		}
		return nil, nil
	})
	return out, nil
}

// analyzePair декодирует и сегментирует оба снимка.
// При параллельном анализе, если упали оба, возвращается ошибка снимка «до».
func (s *TrackingService) analyzePair(ctx context.Context, runID string, in entity.TrackingInput) (*imageRun, *imageRun, error) {
	if !s.parallel {
		beforeImg, err := s.decode(ctx, runID, beforeSide, in.BeforeImage)
		if err != nil {
			return nil, nil, err
		}
		afterImg, err := s.decode(ctx, runID, afterSide, in.AfterImage)
		if err != nil {
			return nil, nil, err
		}
		before, err := s.segment(ctx, runID, beforeSide, beforeImg)
		if err != nil {
			return nil, nil, err
		}
		after, err := s.segment(ctx, runID, afterSide, afterImg)
		if err != nil {
			return nil, nil, err
		}
		return before, after, nil
	}

	var (
		g                   errgroup.Group
		before, after       *imageRun
		beforeErr, afterErr error
	)
	g.Go(func() error {
		before, beforeErr = s.analyze(ctx, runID, beforeSide, in.BeforeImage)
		return beforeErr
	})
	g.Go(func() error {
		after, afterErr = s.analyze(ctx, runID, afterSide, in.AfterImage)
		return afterErr
	})
	_ = g.Wait()

	if beforeErr != nil {
		return nil, nil, beforeErr
	}
	if afterErr != nil {
		return nil, nil, afterErr
	}
	return before, after, nil
}

func (s *TrackingService) analyze(ctx context.Context, runID string, sd side, data []byte) (*imageRun, error) {
	img, err := s.decode(ctx, runID, sd, data)
	if err != nil {
		return nil, err
	}
	return s.segment(ctx, runID, sd, img)
}

func (s *TrackingService) decode(ctx context.Context, runID string, sd side, data []byte) (*entity.RasterImage, error) {
	var img *entity.RasterImage
	err := s.stage(ctx, runID, sd.decode, func() (map[string]any, error) {
		var err error
		img, err = s.decoder.Decode(data)
		if err != nil {
			return nil, withKind(err, apperrors.KindDecode, fmt.Sprintf("%s image could not be decoded", sd.label))
		}
		if img.Empty() {
			return nil, apperrors.NewDecodeError(fmt.Sprintf("%s image decoded to an empty surface", sd.label), nil)
		}
		return map[string]any{"width": img.Width, "height": img.Height}, nil
	})
	return img, err
}

func (s *TrackingService) segment(ctx context.Context, runID string, sd side, img *entity.RasterImage) (*imageRun, error) {
	run := &imageRun{img: img}
	err := s.stage(ctx, runID, sd.segment, func() (map[string]any, error) {
		seg, err := s.segmenter.Segment(img)
		if err != nil {
			return nil, withKind(err, apperrors.KindInternal, fmt.Sprintf("%s image segmentation failed", sd.label))
		}
		if !seg.Mask.MatchesImage(img) {
			return nil, apperrors.NewInternalError(fmt.Sprintf("%s mask does not match image dimensions", sd.label), nil)
		}
		run.seg = seg
		run.area = s.quantifier.Quantify(seg.Mask)
		run.regions = s.quantifier.Regions(seg.Mask)
		return map[string]any{
			"policy":  string(seg.Policy),
			"area":    run.area,
			"regions": len(run.regions),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// stage оборачивает этап событиями для наблюдателя
func (s *TrackingService) stage(ctx context.Context, runID string, st entity.Stage, fn func() (map[string]any, error)) error {
	s.observer.OnStage(ctx, entity.StageEvent{RunID: runID, Stage: st, Status: entity.StageStarted})

	start := time.Now()
	fields, err := fn()
	event := entity.StageEvent{
		RunID:    runID,
		Stage:    st,
		Status:   entity.StageCompleted,
		Duration: time.Since(start),
		Fields:   fields,
	}
	if err != nil {
		event.Status = entity.StageFailed
		event.Err = err
	}
	s.observer.OnStage(ctx, event)
	return err
}

func validateInput(in entity.TrackingInput) error {
	if in.Patient.Age < 0 {
		return apperrors.NewInvalidInputError(fmt.Sprintf("age must be a non-negative integer (got %d)", in.Patient.Age), nil)
	}
	if math.IsNaN(in.ElapsedWeeks) || math.IsInf(in.ElapsedWeeks, 0) || in.ElapsedWeeks < 0 {
		return apperrors.NewInvalidInputError(fmt.Sprintf("weeks must be a non-negative number (got %g)", in.ElapsedWeeks), nil)
	}
	return nil
}

// withKind оставляет классифицированную ошибку как есть, остальные помечает видом kind
func withKind(err error, kind apperrors.Kind, message string) error {
	if _, ok := apperrors.KindOf(err); ok {
		return err
	}
	return &apperrors.Error{Kind: kind, Message: message, Cause: err}
}

func analysis(run *imageRun, reference float64) entity.ImageAnalysis {
	return entity.ImageAnalysis{
		Width:  run.img.Width,
		Height: run.img.Height,
		Area: entity.AreaMetric{
			Area:      run.area,
			TotalArea: reference,
			Regions:   run.regions,
		},
		Overlay: run.seg.Overlay,
	}
}
