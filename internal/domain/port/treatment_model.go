package port

// TreatmentModel предобученный классификатор с декодером меток
type TreatmentModel interface {
	// Predict отображает вектор признаков во внутреннюю целочисленную метку
	Predict(features []float64) (int, error)

	// Decode переводит внутреннюю метку в название категории лечения
	Decode(label int) (string, error)
}
