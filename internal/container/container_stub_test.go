//go:build !gocv

package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vitiligo-tracker/config"
	"vitiligo-tracker/internal/infrastructure/vision"
)

func TestNewBackend_OpenCVRequiresBuildTag(t *testing.T) {
	p := config.DefaultPipeline()
	p.Backend = config.BackendOpenCV

	_, err := NewBackend(p)
	require.ErrorIs(t, err, vision.ErrOpenCVDisabled)
}
