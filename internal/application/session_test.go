package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
	"vitiligo-tracker/internal/infrastructure/storage"
)

func newSession(t *testing.T) (*SessionService, *UserService) {
	t.Helper()
	users := NewUserService(storage.NewMemoryUserRepository())
	history := NewHistoryService(storage.NewMemoryHistoryRepository(), 10)
	return NewSessionService(users, nativeTracker(t), history), users
}

func TestSessionService_FullConversation(t *testing.T) {
	svc, users := newSession(t)
	ctx := context.Background()

	user, err := svc.Begin(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingBeforePhoto, user.State)

	user, err = svc.AcceptBeforePhoto(ctx, 1, 10, pngWithSquare(t, 40))
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingAfterPhoto, user.State)

	user, err = svc.AcceptAfterPhoto(ctx, 1, 10, pngWithSquare(t, 20))
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingAge, user.State)

	_, err = svc.AcceptAge(ctx, 1, 10, "thirty")
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))
	user, err = users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingAge, user.State)

	user, err = svc.AcceptAge(ctx, 1, 10, " 30 ")
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingWeeks, user.State)

	out, err := svc.AcceptWeeks(ctx, 1, 10, "4,0")
	require.NoError(t, err)
	require.Equal(t, 30, out.Patient.Age)
	require.Equal(t, 4.0, out.ElapsedWeeks)
	require.Equal(t, "Continue current treatment", out.Result.TreatmentLabel)

	user, err = users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	summary, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summary.Records, 1)
	require.InDelta(t, out.Result.RateOfChange, summary.MeanRate, 1e-9)
}

func TestSessionService_WeeksWithoutPhotos(t *testing.T) {
	svc, users := newSession(t)
	ctx := context.Background()

	_, err := svc.Begin(ctx, 2, 20)
	require.NoError(t, err)

	_, err = svc.AcceptWeeks(ctx, 2, 20, "3")
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))

	user, err := users.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestSessionService_PipelineFailureResetsState(t *testing.T) {
	svc, users := newSession(t)
	ctx := context.Background()

	_, err := svc.Begin(ctx, 3, 30)
	require.NoError(t, err)
	_, err = svc.AcceptBeforePhoto(ctx, 3, 30, []byte("not an image"))
	require.NoError(t, err)
	_, err = svc.AcceptAfterPhoto(ctx, 3, 30, pngWithSquare(t, 10))
	require.NoError(t, err)
	_, err = svc.AcceptAge(ctx, 3, 30, "25")
	require.NoError(t, err)

	_, err = svc.AcceptWeeks(ctx, 3, 30, "2")
	require.True(t, apperrors.IsKind(err, apperrors.KindDecode))

	user, err := users.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	summary, err := svc.History(ctx, 3)
	require.NoError(t, err)
	require.Empty(t, summary.Records)
}

func TestParseAgeAndWeeks(t *testing.T) {
	age, err := ParseAge("0")
	require.NoError(t, err)
	require.Equal(t, 0, age)
	for _, bad := range []string{"-1", "4.5", "", "200"} {
		_, err := ParseAge(bad)
		require.Error(t, err, bad)
	}

	weeks, err := ParseWeeks("2.5")
	require.NoError(t, err)
	require.Equal(t, 2.5, weeks)
	for _, bad := range []string{"-1", "NaN", "Inf", "soon"} {
		_, err := ParseWeeks(bad)
		require.Error(t, err, bad)
	}
}
