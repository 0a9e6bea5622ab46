package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	if !DetectTheme("dark").IsDark {
		t.Fatalf("expected dark theme for setting dark")
	}
	if DetectTheme("light").IsDark {
		t.Fatalf("expected light theme for setting light")
	}

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme("auto").IsDark {
		t.Fatalf("expected dark theme for black background")
	}

	t.Setenv("COLORFGBG", "0;default;15")
	if DetectTheme("auto").IsDark {
		t.Fatalf("expected light theme for white background")
	}

	t.Setenv("COLORFGBG", "")
	if !DetectTheme("auto").IsDark {
		t.Fatalf("expected dark theme without COLORFGBG")
	}
}
