package ui

import "testing"

func TestMBToString(t *testing.T) {
	tests := []struct {
		mb   int
		want string
	}{
		{0, "0M"},
		{1023, "1023M"},
		{1024, "1.0G"},
		{32768, "32.0G"},
		{4000, "3.9G"},
		{1048576, "1.0T"},
		{1572864, "1.5T"},
	}
	for _, tt := range tests {
		if got := FormatMB(tt.mb); got != tt.want {
			t.Errorf("FormatMB(%d) = %q, want %q", tt.mb, got, tt.want)
		}
	}
}
