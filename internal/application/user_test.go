package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/infrastructure/storage"
)

func TestUserService_BeginTrackingAndCancel(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	user, err := svc.BeginTracking(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingBeforePhoto, user.State)

	user, err = svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, user.Busy())

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.False(t, user.Busy())
}
