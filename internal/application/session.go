package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
)

// draft данные, собранные в диалоге до запуска конвейера
type draft struct {
	before []byte
	after  []byte
	age    int
}

// SessionService ведёт диалог бота: снимок «до», снимок «после», возраст, недели
type SessionService struct {
	users   *UserService
	tracker *TrackingService
	history *HistoryService
	drafts  map[int64]*draft
	mu      sync.RWMutex
}

// NewSessionService создаёт сервис; history может быть nil
func NewSessionService(users *UserService, tracker *TrackingService, history *HistoryService) *SessionService {
	return &SessionService{
		users:   users,
		tracker: tracker,
		history: history,
		drafts:  make(map[int64]*draft),
	}
}

// Begin начинает новое сравнение, прежний черновик отбрасывается
func (s *SessionService) Begin(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	s.mu.Lock()
	s.drafts[userID] = &draft{}
	s.mu.Unlock()
	return s.users.BeginTracking(ctx, userID, chatID)
}

// Cancel прерывает сравнение
func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	s.drop(userID)
	return s.users.Cancel(ctx, userID, chatID)
}

// AcceptBeforePhoto запоминает снимок «до»
func (s *SessionService) AcceptBeforePhoto(ctx context.Context, userID, chatID int64, photo []byte) (*entity.User, error) {
	s.update(userID, func(d *draft) { d.before = photo })
	return s.users.SetState(ctx, userID, chatID, entity.StateAwaitingAfterPhoto)
}

// AcceptAfterPhoto запоминает снимок «после»
func (s *SessionService) AcceptAfterPhoto(ctx context.Context, userID, chatID int64, photo []byte) (*entity.User, error) {
	s.update(userID, func(d *draft) { d.after = photo })
	return s.users.SetState(ctx, userID, chatID, entity.StateAwaitingAge)
}

// AcceptAge разбирает возраст; при ошибке состояние не меняется
func (s *SessionService) AcceptAge(ctx context.Context, userID, chatID int64, text string) (*entity.User, error) {
	age, err := ParseAge(text)
	if err != nil {
		return nil, err
	}
	s.update(userID, func(d *draft) { d.age = age })
	return s.users.SetState(ctx, userID, chatID, entity.StateAwaitingWeeks)
}

// AcceptWeeks разбирает интервал, запускает конвейер и сохраняет результат в историю.
// Пользователь возвращается в главное меню и при успехе, и при ошибке конвейера.
func (s *SessionService) AcceptWeeks(ctx context.Context, userID, chatID int64, text string) (*entity.TrackingOutcome, error) {
	weeks, err := ParseWeeks(text)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	d, ok := s.drafts[userID]
	var in entity.TrackingInput
	if ok {
		in = entity.TrackingInput{
			Patient:      entity.Patient{Age: d.age},
			BeforeImage:  d.before,
			AfterImage:   d.after,
			ElapsedWeeks: weeks,
		}
	}
	s.mu.RUnlock()
	if !ok || len(in.BeforeImage) == 0 || len(in.AfterImage) == 0 {
		_, _ = s.Cancel(ctx, userID, chatID)
		return nil, apperrors.NewInvalidInputError("photos are missing, start again with /track", nil)
	}

	if _, err := s.users.SetState(ctx, userID, chatID, entity.StateProcessing); err != nil {
		return nil, err
	}
	defer func() {
		_, _ = s.Cancel(ctx, userID, chatID)
	}()

	out, err := s.tracker.Track(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		if _, err := s.history.Record(ctx, TelegramUserKey(userID), out); err != nil {
			return out, fmt.Errorf("save history: %w", err)
		}
	}
	return out, nil
}

// History сводка по прошлым сравнениям пользователя бота
func (s *SessionService) History(ctx context.Context, userID int64) (*HistorySummary, error) {
	if s.history == nil {
		return &HistorySummary{}, nil
	}
	return s.history.Summary(ctx, TelegramUserKey(userID))
}

func (s *SessionService) update(userID int64, fn func(d *draft)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[userID]
	if !ok {
		d = &draft{}
		s.drafts[userID] = d
	}
	fn(d)
}

func (s *SessionService) drop(userID int64) {
	s.mu.Lock()
	delete(s.drafts, userID)
	s.mu.Unlock()
}

// ParseAge возраст пациента: целое неотрицательное число
func ParseAge(text string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || age < 0 || age > 150 {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("age must be a whole number between 0 and 150 (got %q)", text), nil)
	}
	return age, nil
}

// ParseWeeks интервал в неделях: неотрицательное число, допускается запятая
func ParseWeeks(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	weeks, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(weeks) || math.IsInf(weeks, 0) || weeks < 0 {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("weeks must be a non-negative number (got %q)", text), nil)
	}
	return weeks, nil
}
