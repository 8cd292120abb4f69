package snapshot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleConsole() *Console {
	s := &Console{
		Region: "NTSC",
		Mapper: "MMC1",
		Frames: 42,
		CPU: CPU{
			PC: 0xC123, A: 1, X: 2, Y: 3, SP: 0xF0, P: 0x24,
			Cycles: 1234567,
		},
		PPU: PPU{
			Scanline: 241, Cycle: 17,
			PPUCTRL: 0x90, PPUMASK: 0x1E, PPUSTATUS: 0x80, OAMADDR: 4,
			V: 0x2400, T: 0x2400, FineX: 3, W: true,
		},
		APU: APU{
			Status:  0x4F,
			Outputs: [4]uint8{15, 0, 7, 2},
		},
	}
	for i := range s.RAM {
		s.RAM[i] = uint8(i * 7)
	}
	for i := range s.PPU.OAM {
		s.PPU.OAM[i] = uint8(255 - i)
	}
	for i := range s.PPU.Palette {
		s.PPU.Palette[i] = uint8(i)
	}
	return s
}

func TestJSONRoundTrip(t *testing.T) {
	want := sampleConsole()

	buf, err := want.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"region"`, `"cpu"`, `"oam"`, `"palette"`} {
		if !strings.Contains(string(buf), key) {
			t.Errorf("encoded snapshot lacks %s", key)
		}
	}

	var got Console
	if err := got.UnmarshalJSON(buf); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, &got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONUnknownFields(t *testing.T) {
	var got Console
	err := got.UnmarshalJSON([]byte(`{"region":"PAL","debugger":{"breakpoints":[1,2]},"cpu":{"pc":49152,"extra":true}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.Region != "PAL" || got.CPU.PC != 0xC000 {
		t.Errorf("got region=%q pc=%04X", got.Region, got.CPU.PC)
	}
}

func TestJSONDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string // substring of the error
	}{
		{"not an object", `[]`, ""},
		{"ram too short", `{"ram":"AAAA"}`, `"ram"`},
		{"palette too long", `{"ppu":{"palette":[` + strings.Repeat("0,", 32) + `0]}}`, `"palette"`},
		{"outputs too short", `{"apu":{"outputs":[1,2]}}`, `"outputs"`},
		{"wrong type", `{"frames":"many"}`, `"frames"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Console
			err := s.UnmarshalJSON([]byte(tt.json))
			if err == nil {
				t.Fatalf("UnmarshalJSON() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q doesn't mention %s", err, tt.want)
			}
		})
	}
}
