package nn

import "math"

// BaseActivations are the general purpose transfer functions.
func BaseActivations() []ActivationSpec {
	return []ActivationSpec{
		Spec("identity", Identity),
		Spec("relu", Relu),
		Spec("tanh", math.Tanh),
		Spec("sigmoid", Sigmoid),
	}
}

// PatternActivations are the periodic, symmetric and quantizing functions
// that give CPPN images their stripes, rings and plateaus.
func PatternActivations() []ActivationSpec {
	return []ActivationSpec{
		Spec("sin", math.Sin),
		Spec("cos", math.Cos),
		Spec("gaussian", Gaussian),
		Spec("abs", math.Abs),
		Spec("square", Square),
		Spec("step", Step),
		Spec("clamp", Clamp),
		Spec("pulse", Pulse),
		Spec("staircase", Staircase),
	}
}

// OutputPalette lists the activations diversification draws from.
func OutputPalette() []string {
	return []string{
		"sin", "cos", "gaussian", "abs", "square",
		"step", "clamp", "pulse", "staircase",
		"tanh", "sigmoid",
	}
}

func Identity(x float64) float64 {
	return x
}

func Relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Gaussian is e^(-x²).
func Gaussian(x float64) float64 {
	return math.Exp(-x * x)
}

func Square(x float64) float64 {
	return x * x
}

// Step is the Heaviside function with Step(0) = 0.
func Step(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// Clamp limits x to [-1, 1].
func Clamp(x float64) float64 {
	return Sat(x, 1, -1)
}

// Pulse is a square wave over the fractional part of x. The fractional part
// keeps the sign of x, so negative inputs stay low.
func Pulse(x float64) float64 {
	_, frac := math.Modf(x)
	if frac > 0.5 {
		return 1
	}
	return 0
}

// Staircase quantizes clamp(x) into the five levels -1, -0.5, 0, 0.5, 1.
func Staircase(x float64) float64 {
	return math.Round(Clamp(x)*2) / 2
}

// Sat clamps value to [min, max].
func Sat(value, max, min float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}
