package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Common parameter formatters and parsers.

// DecibelFormatter formats dB values.
func DecibelFormatter(db float64) string {
	if db <= -96 {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// DecibelParser parses dB strings.
func DecibelParser(str string) (float64, error) {
	if strings.Contains(str, "∞") || strings.Contains(str, "inf") {
		return -96.0, nil
	}
	str = strings.TrimSuffix(strings.TrimSpace(str), "dB")
	str = strings.TrimSuffix(strings.TrimSpace(str), "db")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// LoudnessFormatter formats LUFS values.
func LoudnessFormatter(lufs float64) string {
	if lufs <= -70 {
		return "-∞ LUFS"
	}
	return fmt.Sprintf("%.1f LUFS", lufs)
}

// LoudnessParser parses LUFS strings.
func LoudnessParser(str string) (float64, error) {
	if strings.Contains(str, "∞") || strings.Contains(str, "inf") {
		return -70.0, nil
	}
	str = strings.TrimSuffix(strings.TrimSpace(str), "LUFS")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// FramesFormatter formats integer frame counts.
func FramesFormatter(frames float64) string {
	return fmt.Sprintf("%.0f frames", frames)
}

// FramesParser parses frame count strings.
func FramesParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "frames")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// PercentFormatter formats percentage values.
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// PercentParser parses percentage strings.
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseFloat(str, 64)
}
