package service_test

import "math"

func scoreNaN() float64 { return math.NaN() }
