package models

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// DigitsOnly strips everything but decimal digits.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// ValidMMSI reports whether mmsi is a 9 digit ship station identity (MID 200-799).
func ValidMMSI(mmsi string) bool {
	clean := DigitsOnly(mmsi)
	if len(clean) != 9 || len(clean) != len(strings.TrimSpace(mmsi)) {
		return false
	}
	mid, err := strconv.Atoi(clean[:3])
	if err != nil {
		return false
	}
	return mid >= 200 && mid <= 799
}

func ValidLatitude(lat float64) bool {
	return isFinite(lat) && lat >= -90 && lat <= 90
}

func ValidLongitude(lon float64) bool {
	return isFinite(lon) && lon >= -180 && lon <= 180
}

func ValidSpeed(speed float64) bool {
	return isFinite(speed) && speed >= 0
}

func ValidCourse(course float64) bool {
	return isFinite(course) && course >= 0 && course <= 360
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
