package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitiligo-tracker/config"
	apperrors "vitiligo-tracker/internal/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		ModelPath: filepath.Join("..", "infrastructure", "model", "testdata", "bundle.yaml"),
		Pipeline:  config.DefaultPipeline(),
	}
}

func TestNew_InMemory(t *testing.T) {
	c, err := New(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.TrackingService)
	require.NotNil(t, c.SessionService)
	require.NotNil(t, c.Stats)

	summary, err := c.HistoryService.Summary(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, summary.Records)
}

func TestNew_MissingModel(t *testing.T) {
	cfg := testConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.True(t, apperrors.IsKind(err, apperrors.KindModelLoad))
}

func TestNewBackend_UnknownBackend(t *testing.T) {
	p := config.DefaultPipeline()
	p.Backend = "gpu"

	_, err := NewBackend(p)
	require.Error(t, err)
}

func TestNewBackend_Native(t *testing.T) {
	b, err := NewBackend(config.DefaultPipeline())
	require.NoError(t, err)
	require.NotNil(t, b.Decoder)
	require.NotNil(t, b.Segmenter)
	require.NotNil(t, b.Quantifier)
}
