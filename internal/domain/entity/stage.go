package entity

import "time"

// Stage этап конвейера
type Stage string

const (
	StageValidate      Stage = "validate"
	StageDecodeBefore  Stage = "decode_before"
	StageDecodeAfter   Stage = "decode_after"
	StageSegmentBefore Stage = "segment_before"
	StageSegmentAfter  Stage = "segment_after"
	StageReference     Stage = "reference_area"
	StageProgression   Stage = "progression"
	StageClassify      Stage = "classify"
	StageAssemble      Stage = "assemble"
)

// StageStatus состояние этапа
type StageStatus string

const (
	StageStarted   StageStatus = "started"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageEvent событие на границе этапа
type StageEvent struct {
	RunID    string
	Stage    Stage
	Status   StageStatus
	Duration time.Duration
	Err      error
	Fields   map[string]any
}
