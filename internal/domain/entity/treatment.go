package entity

// FeatureCount длина вектора признаков, ожидаемого моделью
const FeatureCount = 5

// ProgressionFeatures вход классификатора.
// Порядок полей — часть контракта обученной модели, менять только вместе с переобучением.
type ProgressionFeatures struct {
	Age           int
	ElapsedWeeks  float64
	RateOfChange  float64
	PercentBefore float64
	PercentAfter  float64
}

// NewProgressionFeatures собирает признаки из метаданных пациента и динамики
func NewProgressionFeatures(age int, weeks float64, p Progression) ProgressionFeatures {
	return ProgressionFeatures{
		Age:           age,
		ElapsedWeeks:  weeks,
		RateOfChange:  p.RateOfChange,
		PercentBefore: p.PercentBefore,
		PercentAfter:  p.PercentAfter,
	}
}

// Vector возвращает [age, weeks, rate, percentBefore, percentAfter]
func (f ProgressionFeatures) Vector() []float64 {
	return []float64{
		float64(f.Age),
		f.ElapsedWeeks,
		f.RateOfChange,
		f.PercentBefore,
		f.PercentAfter,
	}
}

// TreatmentResult итог одной пары снимков. После создания не меняется.
type TreatmentResult struct {
	TreatmentLabel   string
	ChangePercentage float64
	BeforeArea       float64
	AfterArea        float64
	RateOfChange     float64
}

// Patient метаданные пациента
type Patient struct {
	Name   string
	Gender string
	Age    int
}

// TrackingInput вход конвейера: пара закодированных снимков и метаданные
type TrackingInput struct {
	Patient      Patient
	BeforeImage  []byte
	AfterImage   []byte
	ElapsedWeeks float64
}

// ImageAnalysis результат анализа одного снимка
type ImageAnalysis struct {
	Width   int
	Height  int
	Area    AreaMetric
	Overlay *RasterImage
}

// TrackingOutcome всё, что конвейер отдаёт внешним потребителям
type TrackingOutcome struct {
	RunID         string
	Patient       Patient
	ElapsedWeeks  float64
	ReferenceArea float64
	Before        ImageAnalysis
	After         ImageAnalysis
	Progression   Progression
	Features      ProgressionFeatures
	Result        TreatmentResult
}
