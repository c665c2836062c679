package utils

import "fmt"

// MapsLink builds a shareable map URL for a coordinate pair
func MapsLink(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", lat, lng)
}
