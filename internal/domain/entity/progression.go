package entity

import (
	"fmt"
	"math"

	apperrors "vitiligo-tracker/internal/errors"
)

// ProgressionInput площади до/после и прошедшее время
type ProgressionInput struct {
	BeforeArea    float64
	AfterArea     float64
	ReferenceArea float64 // 0 — опорной площади нет
	ElapsedWeeks  float64
}

// Progression нормированные показатели динамики
type Progression struct {
	PercentBefore float64
	PercentAfter  float64
	PercentChange float64
	RateOfChange  float64 // процент изменения в неделю
}

// ComputeProgression считает показатели динамики.
// Нулевой знаменатель даёт 0, а не ошибку: нет базы — нет тренда.
// Отрицательный или нечисловой вход — нарушение контракта вызывающего.
func ComputeProgression(in ProgressionInput) (Progression, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"before area", in.BeforeArea},
		{"after area", in.AfterArea},
		{"reference area", in.ReferenceArea},
		{"elapsed weeks", in.ElapsedWeeks},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return Progression{}, apperrors.NewInvalidInputError(fmt.Sprintf("%s is not a finite number", f.name), nil)
		}
		if f.v < 0 {
			return Progression{}, apperrors.NewInvalidInputError(fmt.Sprintf("%s is negative (%g)", f.name, f.v), nil)
		}
	}

	var p Progression
	if in.ReferenceArea > 0 {
		p.PercentBefore = finiteOrZero(in.BeforeArea / in.ReferenceArea * 100)
		p.PercentAfter = finiteOrZero(in.AfterArea / in.ReferenceArea * 100)
	}
	if in.BeforeArea > 0 {
		p.PercentChange = finiteOrZero((in.AfterArea - in.BeforeArea) / in.BeforeArea * 100)
		if in.ElapsedWeeks > 0 {
			p.RateOfChange = finiteOrZero(p.PercentChange / in.ElapsedWeeks)
		}
	}
	return p, nil
}

// finiteOrZero переполнение на вырожденных знаменателях сводится к 0
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
