// Package param provides the plugin parameter registry: typed descriptors
// with atomic values safe to read from the audio thread.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter represents a plugin parameter.
type Parameter struct {
	ID           uint32
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64
	StepCount    int32
	Flags        uint32

	// Atomic bits of the normalized value for lock-free access from the
	// audio thread.
	value uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters.
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsHidden    uint32 = 1 << 2
	// IsOutput marks a parameter the plugin reports to the host rather than
	// the other way around, like the measurement window size.
	IsOutput uint32 = 1 << 3
	IsBypass uint32 = 1 << 16
)

// GetValue returns the current normalized value (0-1).
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&p.value))
}

// SetValue sets the normalized value, clamped to 0-1.
func (p *Parameter) SetValue(value float64) {
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}
	atomic.StoreUint64(&p.value, math.Float64bits(value))
}

// GetPlainValue converts the current normalized value to the plain range.
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// SetPlainValue sets the value from the plain range.
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// FormatValue returns the formatted display string for a normalized value.
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Denormalize(normalized)
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses a display string to a normalized value.
func (p *Parameter) ParseValue(str string) (float64, error) {
	if p.parseFunc != nil {
		plain, err := p.parseFunc(str)
		if err != nil {
			return 0, err
		}
		return p.Normalize(plain), nil
	}
	plain, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return p.Normalize(plain), nil
}

// Normalize converts a plain value to normalized (0-1).
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	normalized := (plain - p.Min) / (p.Max - p.Min)
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// Denormalize converts a normalized (0-1) value to the plain range.
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}
