package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLesionRegionCenter(t *testing.T) {
	r := LesionRegion{X: 10, Y: 20, Width: 8, Height: 6}
	x, y := r.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
}

func TestAreaMetricPercent(t *testing.T) {
	require.InDelta(t, 10.0, AreaMetric{Area: 1000, TotalArea: 10000}.Percent(), 1e-9)
	require.Equal(t, 0.0, AreaMetric{Area: 1000}.Percent())
}
