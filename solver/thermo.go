package solver

import "math"

// GammaToTemperature converts a reflection coefficient to a tag
// temperature in Celsius via the Beta thermistor model.
//
// The coefficient is clamped away from the +/-1 poles, mapped to a load
// resistance R = Z0*(1-g)/(1+g), then 1/T = 1/T25 + ln(R/R25)/Beta.
// Out-of-band temperatures are still returned but flagged invalid; only a
// non-finite input or non-physical resistance yields NaN. Never panics.
func GammaToTemperature(gamma float64) (float64, bool) {
	if math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return math.NaN(), false
	}
	gamma = clamp(gamma, -GammaClamp, GammaClamp)

	r := Z0Ohms * (1 - gamma) / (1 + gamma)
	if r <= 0 {
		return math.NaN(), false
	}

	invT := 1/T25Kelvin + math.Log(r/R25Ohms)/BetaKelvin
	tempC := 1/invT - KelvinZeroC

	return tempC, tempC >= TempValidMinC && tempC <= TempValidMaxC
}
