package model

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"vitiligo-tracker/internal/domain/entity"
	apperrors "vitiligo-tracker/internal/errors"
)

// Bundle сериализованный артефакт: классификатор и декодер меток.
// Формат YAML; JSON тоже принимается, так как является его подмножеством.
type Bundle struct {
	Model   *ForestSpec  `yaml:"model" json:"model"`
	Encoder *EncoderSpec `yaml:"label_encoder_treatment" json:"label_encoder_treatment"`
}

// ForestSpec ансамбль деревьев решений
type ForestSpec struct {
	Type      string     `yaml:"type" json:"type"`
	NFeatures int        `yaml:"n_features" json:"n_features"`
	Classes   []int      `yaml:"classes" json:"classes"`
	Trees     []TreeSpec `yaml:"trees" json:"trees"`
}

// TreeSpec дерево в плоском виде, корень — узел 0
type TreeSpec struct {
	Nodes []NodeSpec `yaml:"nodes" json:"nodes"`
}

// NodeSpec узел дерева. У листа left = right = -1, value — распределение по классам.
type NodeSpec struct {
	Feature   int       `yaml:"feature" json:"feature"`
	Threshold float64   `yaml:"threshold" json:"threshold"`
	Left      int       `yaml:"left" json:"left"`
	Right     int       `yaml:"right" json:"right"`
	Value     []float64 `yaml:"value" json:"value"`
}

func (n NodeSpec) leaf() bool {
	return n.Left == -1 && n.Right == -1
}

// EncoderSpec названия категорий лечения по индексу метки
type EncoderSpec struct {
	Classes []string `yaml:"classes" json:"classes"`
}

// Load читает и проверяет бандл с диска
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewModelLoadError(fmt.Sprintf("cannot read model bundle %q", path), errors.Wrap(err, "read bundle"))
	}
	return Parse(data)
}

// Parse разбирает бандл и собирает модель. Любой дефект структуры — ModelLoadError.
func Parse(data []byte) (*Model, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, apperrors.NewModelLoadError("malformed model bundle", errors.Wrap(err, "unmarshal bundle"))
	}
	if b.Model == nil {
		return nil, apperrors.NewModelLoadError("model bundle has no classifier (key \"model\")", nil)
	}
	if b.Encoder == nil {
		return nil, apperrors.NewModelLoadError("model bundle has no label decoder (key \"label_encoder_treatment\")", nil)
	}
	if err := b.validate(); err != nil {
		return nil, apperrors.NewModelLoadError("invalid model bundle", err)
	}
	return &Model{
		forest:  newForest(b.Model),
		encoder: &LabelEncoder{classes: append([]string(nil), b.Encoder.Classes...)},
	}, nil
}

func (b *Bundle) validate() error {
	m := b.Model
	if m.NFeatures != entity.FeatureCount {
		return errors.Errorf("classifier expects %d features, pipeline produces %d", m.NFeatures, entity.FeatureCount)
	}
	if len(m.Classes) == 0 {
		return errors.New("classifier has no classes")
	}
	if len(b.Encoder.Classes) == 0 {
		return errors.New("label decoder has no classes")
	}
	for _, c := range m.Classes {
		if c < 0 || c >= len(b.Encoder.Classes) {
			return errors.Errorf("classifier label %d has no name in the decoder", c)
		}
	}
	if len(m.Trees) == 0 {
		return errors.New("classifier has no trees")
	}
	for ti, tree := range m.Trees {
		if err := validateTree(tree, m.NFeatures, len(m.Classes)); err != nil {
			return errors.Wrapf(err, "tree %d", ti)
		}
	}
	return nil
}

// validateTree проверяет ссылки на потомков: только вперёд, поэтому обход всегда конечен
func validateTree(tree TreeSpec, nFeatures, nClasses int) error {
	if len(tree.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range tree.Nodes {
		if n.leaf() {
			if len(n.Value) != nClasses {
				return errors.Errorf("leaf %d has %d values, want %d", i, len(n.Value), nClasses)
			}
			var sum float64
			for _, v := range n.Value {
				if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					return errors.Errorf("leaf %d has invalid value %g", i, v)
				}
				sum += v
			}
			if sum <= 0 {
				return errors.Errorf("leaf %d has empty distribution", i)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return errors.Errorf("node %d splits on feature %d", i, n.Feature)
		}
		if math.IsNaN(n.Threshold) || math.IsInf(n.Threshold, 0) {
			return errors.Errorf("node %d has non-finite threshold", i)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(tree.Nodes) {
				return errors.Errorf("node %d has invalid child %d", i, child)
			}
		}
	}
	return nil
}
