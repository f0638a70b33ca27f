package timeline

import "fmt"

// CompositionFilters are whole-composition visual adjustments. A nil field
// means no adjustment for that channel.
type CompositionFilters struct {
	Contrast   *float64 `json:"contrast,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
	HueRotate  *float64 `json:"hueRotate,omitempty"`
	Sepia      *float64 `json:"sepia,omitempty"`
	Grayscale  *float64 `json:"grayscale,omitempty"`
	Invert     *float64 `json:"invert,omitempty"`
	Blur       *float64 `json:"blur,omitempty"`
}

type filterRange struct {
	name     string
	value    *float64
	min, max float64
}

// Validate checks that every present filter value sits inside its range
func (f CompositionFilters) Validate() error {
	ranges := []filterRange{
		{"contrast", f.Contrast, 0.5, 2.0},
		{"saturation", f.Saturation, 0.0, 3.0},
		{"brightness", f.Brightness, 0.5, 2.0},
		{"hueRotate", f.HueRotate, -180.0, 180.0},
		{"sepia", f.Sepia, 0.0, 1.0},
		{"grayscale", f.Grayscale, 0.0, 1.0},
		{"invert", f.Invert, 0.0, 1.0},
		{"blur", f.Blur, 0.0, 10.0},
	}
	for _, r := range ranges {
		if r.value == nil {
			continue
		}
		if *r.value < r.min || *r.value > r.max {
			return fmt.Errorf("filter %s must be within [%g, %g], got %g", r.name, r.min, r.max, *r.value)
		}
	}
	return nil
}

// IsIdentity reports whether the filter block makes no visual adjustment, so
// serialization can omit it entirely
func (f CompositionFilters) IsIdentity() bool {
	identity := []struct {
		value *float64
		def   float64
	}{
		{f.Contrast, 1.0},
		{f.Saturation, 1.0},
		{f.Brightness, 1.0},
		{f.HueRotate, 0.0},
		{f.Sepia, 0.0},
		{f.Grayscale, 0.0},
		{f.Invert, 0.0},
		{f.Blur, 0.0},
	}
	for _, field := range identity {
		if field.value != nil && *field.value != field.def {
			return false
		}
	}
	return true
}
