package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"vitiligo-tracker/internal/domain/port"
	apperrors "vitiligo-tracker/internal/errors"
)

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	proba     []float64 // нормированное распределение листа
}

// Forest ансамбль деревьев: вероятности листьев усредняются, побеждает argmax
type Forest struct {
	nFeatures int
	classes   []int
	trees     [][]node
}

func newForest(spec *ForestSpec) *Forest {
	f := &Forest{
		nFeatures: spec.NFeatures,
		classes:   append([]int(nil), spec.Classes...),
		trees:     make([][]node, 0, len(spec.Trees)),
	}
	for _, t := range spec.Trees {
		nodes := make([]node, len(t.Nodes))
		for i, n := range t.Nodes {
			nodes[i] = node{feature: n.Feature, threshold: n.Threshold, left: n.Left, right: n.Right}
			if n.leaf() {
				p := append([]float64(nil), n.Value...)
				floats.Scale(1/floats.Sum(p), p)
				nodes[i].proba = p
			}
		}
		f.trees = append(f.trees, nodes)
	}
	return f
}

// PredictProba усреднённое распределение по классам
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.nFeatures {
		return nil, apperrors.NewClassificationError(fmt.Sprintf("feature vector has %d values, want %d", len(x), f.nFeatures), nil)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, apperrors.NewClassificationError(fmt.Sprintf("feature %d is not finite", i), nil)
		}
	}

	sum := make([]float64, len(f.classes))
	for _, tree := range f.trees {
		floats.Add(sum, leaf(tree, x).proba)
	}
	floats.Scale(1/float64(len(f.trees)), sum)
	return sum, nil
}

// Predict метка класса с наибольшей вероятностью; при равенстве — первая
func (f *Forest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return f.classes[floats.MaxIdx(proba)], nil
}

// leaf спускается по дереву: влево, если x[feature] <= threshold
func leaf(tree []node, x []float64) node {
	i := 0
	for tree[i].proba == nil {
		n := tree[i]
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
	return tree[i]
}

// LabelEncoder переводит метку в название категории
type LabelEncoder struct {
	classes []string
}

// Decode название по индексу метки
func (e *LabelEncoder) Decode(label int) (string, error) {
	if label < 0 || label >= len(e.classes) {
		return "", apperrors.NewClassificationError(fmt.Sprintf("label %d is outside the decoder range [0, %d)", label, len(e.classes)), nil)
	}
	return e.classes[label], nil
}

// Model классификатор и декодер из одного бандла
type Model struct {
	forest  *Forest
	encoder *LabelEncoder
}

func (m *Model) Predict(features []float64) (int, error) {
	return m.forest.Predict(features)
}

func (m *Model) Decode(label int) (string, error) {
	return m.encoder.Decode(label)
}

// Classes названия всех категорий в порядке меток
func (m *Model) Classes() []string {
	return append([]string(nil), m.encoder.classes...)
}

var _ port.TreatmentModel = (*Model)(nil)
