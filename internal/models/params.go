package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidParameters is wrapped by every ValidationError
var ErrInvalidParameters = errors.New("invalid process parameters")

// Range is an inclusive numeric bound with its unit
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// Contains reports whether v lies inside the range
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ParameterBounds are the accepted ranges for each numeric field, keyed by JSON name
var ParameterBounds = map[string]Range{
	"rfPower":        {Min: 100, Max: 2000, Unit: "W"},
	"pressure":       {Min: 1, Max: 100, Unit: "mTorr"},
	"gasFlowCF4":     {Min: 0, Max: 200, Unit: "sccm"},
	"gasFlowO2":      {Min: 0, Max: 100, Unit: "sccm"},
	"gasFlowAr":      {Min: 0, Max: 200, Unit: "sccm"},
	"pulseDutyCycle": {Min: 10, Max: 90, Unit: "%"},
	"pulseFrequency": {Min: 100, Max: 10000, Unit: "Hz"},
	"processTime":    {Min: 10, Max: 600, Unit: "s"},
	"chamberRfHours": {Min: 0, Max: 500, Unit: "h"},
}

// DefaultParameters returns the recipe the dashboard form starts with
func DefaultParameters() ProcessParameters {
	return ProcessParameters{
		RFPower:        800,
		Pressure:       20,
		GasFlowCF4:     80,
		GasFlowO2:      20,
		GasFlowAr:      50,
		PulseEnabled:   false,
		PulseDutyCycle: 50,
		PulseFrequency: 1000,
		ProcessTime:    120,
		ChamberRFHours: 0,
	}
}

// FieldError describes one out-of-bound parameter
type FieldError struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s=%g outside [%g, %g]", f.Field, f.Value, f.Min, f.Max)
}

// ValidationError lists every field that failed validation
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidParameters, strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrInvalidParameters).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameters
}

// Validate checks every field against ParameterBounds.
// Pulse duty cycle and frequency are only checked when pulsing is enabled.
func (p ProcessParameters) Validate() error {
	var fields []FieldError

	check := func(name string, v float64) {
		b := ParameterBounds[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || !b.Contains(v) {
			fields = append(fields, FieldError{Field: name, Value: v, Min: b.Min, Max: b.Max})
		}
	}

	check("rfPower", p.RFPower)
	check("pressure", p.Pressure)
	check("gasFlowCF4", p.GasFlowCF4)
	check("gasFlowO2", p.GasFlowO2)
	check("gasFlowAr", p.GasFlowAr)
	if p.PulseEnabled {
		check("pulseDutyCycle", p.PulseDutyCycle)
		check("pulseFrequency", p.PulseFrequency)
	}
	check("processTime", p.ProcessTime)
	check("chamberRfHours", p.ChamberRFHours)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
