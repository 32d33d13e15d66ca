package analysis

// Attenuation converts original and current gravity into a progress ratio.
// The result is not clamped: readings above OG give negative values and
// readings below 1.000 give values above one.
func Attenuation(og, gravity float64) float64 {
	if og <= 1.0 {
		return 0.0
	}
	return (og - gravity) / (og - 1.0)
}
