package config

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/infrastructure/vision"
)

// Бэкенды обработки изображений
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// PipelineConfig настройки конвейера из YAML
type PipelineConfig struct {
	// Backend native (чистый Go) или opencv (нужна сборка с тегом gocv)
	Backend string `yaml:"backend"`

	Segmentation struct {
		Policy          string `yaml:"policy"`
		ColorSpace      string `yaml:"colorSpace"`
		Threshold       int    `yaml:"threshold"`
		MinContrast     int    `yaml:"minContrast"`
		KernelSize      int    `yaml:"kernelSize"`
		OpenIterations  int    `yaml:"openIterations"`
		CloseIterations int    `yaml:"closeIterations"`
	} `yaml:"segmentation"`

	Quantifier struct {
		Metric        string `yaml:"metric"`
		DarkThreshold int    `yaml:"darkThreshold"`
	} `yaml:"quantifier"`

	Overlay struct {
		Opacity float64 `yaml:"opacity"`
		Color   string  `yaml:"color"` // #rrggbb
	} `yaml:"overlay"`

	// MaxPixels предел размера снимка (ширина×высота); 0 — без предела
	MaxPixels int `yaml:"maxPixels"`

	// Workers горутин для морфологии; 0 — все ядра
	Workers int `yaml:"workers"`

	// ParallelAnalysis анализ снимков «до» и «после» одновременно
	ParallelAnalysis bool `yaml:"parallelAnalysis"`

	// HistoryLimit сколько записей истории показывать
	HistoryLimit int `yaml:"historyLimit"`
}

// DefaultPipeline настройки по умолчанию
func DefaultPipeline() *PipelineConfig {
	d := vision.DefaultOptions()

	cfg := &PipelineConfig{Backend: BackendNative}
	cfg.Segmentation.Policy = string(d.Policy)
	cfg.Segmentation.ColorSpace = string(d.ColorSpace)
	cfg.Segmentation.Threshold = d.LightnessThreshold
	cfg.Segmentation.MinContrast = d.MinContrast
	cfg.Segmentation.KernelSize = d.KernelSize
	cfg.Segmentation.OpenIterations = d.OpenIterations
	cfg.Segmentation.CloseIterations = d.CloseIterations
	cfg.Quantifier.Metric = string(d.Metric)
	cfg.Quantifier.DarkThreshold = d.DarkThreshold
	cfg.Overlay.Opacity = d.OverlayOpacity
	cfg.Overlay.Color = "#ff0000"
	cfg.MaxPixels = d.MaxPixels
	cfg.HistoryLimit = 10
	return cfg
}

// LoadPipeline читает YAML поверх значений по умолчанию.
// Пустой путь или отсутствующий файл — значения по умолчанию.
func LoadPipeline(path string) (*PipelineConfig, error) {
	cfg := DefaultPipeline()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing pipeline config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate проверяет бэкенд и диапазоны параметров
func (c *PipelineConfig) Validate() error {
	switch c.Backend {
	case BackendNative, BackendOpenCV:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must be >= 0 (got %d)", c.HistoryLimit)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	_, err := c.VisionOptions()
	return err
}

// VisionOptions переводит настройки в параметры сегментации
func (c *PipelineConfig) VisionOptions() (vision.Options, error) {
	opts := vision.DefaultOptions()

	policy, err := entity.ParseSegmentationPolicy(c.Segmentation.Policy)
	if err != nil {
		return opts, err
	}
	metric, err := entity.ParseAreaMetric(c.Quantifier.Metric)
	if err != nil {
		return opts, err
	}
	highlight, err := parseHexColor(c.Overlay.Color)
	if err != nil {
		return opts, err
	}

	opts.Policy = policy
	if c.Segmentation.ColorSpace != "" {
		opts.ColorSpace = vision.ColorSpace(strings.ToLower(c.Segmentation.ColorSpace))
	}
	opts.LightnessThreshold = c.Segmentation.Threshold
	opts.MinContrast = c.Segmentation.MinContrast
	opts.KernelSize = c.Segmentation.KernelSize
	opts.OpenIterations = c.Segmentation.OpenIterations
	opts.CloseIterations = c.Segmentation.CloseIterations
	opts.Metric = metric
	opts.DarkThreshold = c.Quantifier.DarkThreshold
	opts.OverlayOpacity = c.Overlay.Opacity
	opts.HighlightColor = highlight
	opts.Workers = c.Workers
	opts.MaxPixels = c.MaxPixels

	return opts, opts.Validate()
}

func parseHexColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{R: 255, A: 255}, nil
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b); err != nil || len(strings.TrimPrefix(s, "#")) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid overlay color %q, want #rrggbb", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
