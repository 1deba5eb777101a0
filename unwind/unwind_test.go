package unwind

import "testing"

func TestThrowSymbol(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{"_unwind", "ffi_unwind_throw"},
		{"_safe", "ffi_safe_throw"},
	}

	for _, tt := range tests {
		if got := ThrowSymbol(tt.suffix); got != tt.want {
			t.Errorf("ThrowSymbol(%q) = %q, want %q", tt.suffix, got, tt.want)
		}
	}
}
