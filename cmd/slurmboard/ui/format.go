package ui

import "fmt"

// FormatMB formats megabytes as M, G or T with one decimal.
func FormatMB(mb int) string {
	switch {
	case mb < 1024:
		return fmt.Sprintf("%dM", mb)
	case mb < 1024*1024:
		return fmt.Sprintf("%.1fG", float64(mb)/1024)
	default:
		return fmt.Sprintf("%.1fT", float64(mb)/(1024*1024))
	}
}
