package hwdefs

import (
	"fmt"
	"testing"
)

func TestIsKind(t *testing.T) {
	err := Errorf(UnsupportedMapper, "mapper %d", 42)
	wrapped := fmt.Errorf("loading cartridge: %w", err)

	if !IsKind(wrapped, UnsupportedMapper) {
		t.Errorf("IsKind(%v, UnsupportedMapper) = false, want true", wrapped)
	}
	if IsKind(wrapped, InvalidImage) {
		t.Errorf("IsKind(%v, InvalidImage) = true, want false", wrapped)
	}
	if IsKind(fmt.Errorf("plain"), InvalidImage) {
		t.Errorf("IsKind(plain error) = true, want false")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{InvalidImage, "InvalidImage"},
		{UnsupportedMapper, "UnsupportedMapper"},
		{UnsupportedOpcode, "UnsupportedOpcode"},
		{BusAddressFault, "BusAddressFault"},
		{Kind(9), "Kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestRegionText(t *testing.T) {
	var r Region
	if err := r.UnmarshalText([]byte("PAL")); err != nil {
		t.Fatal(err)
	}
	if r != PAL {
		t.Errorf("region = %s, want PAL", r)
	}
	if got := r.PPUDivider(); got != 5 {
		t.Errorf("PAL PPU divider = %d, want 5", got)
	}
	if err := r.UnmarshalText([]byte("secam")); err == nil {
		t.Errorf("UnmarshalText(secam) succeeded, want error")
	}
}
