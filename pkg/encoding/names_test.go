package encoding

import "testing"

func TestDecodeString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("hero_idle"), "hero_idle"},
		{"utf8", []byte("caf\xc3\xa9"), "café"},
		{"windows-1252", []byte("caf\xe9"), "café"},
		{"trailing nulls", []byte("name\x00\x00"), "name"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeString(tt.in); got != tt.want {
				t.Errorf("DecodeString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hero_idle", "hero_idle"},
		{"Pokémon", "Pokemon"},
		{"ui/button:press", "ui_button_press"},
		{"a\x01b", "ab"},
		{" . ", "_"},
		{"", "_"},
		{"trail.", "trail"},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath(`SC\Hero_TEX.sc`); got != "sc/hero_tex.sc" {
		t.Errorf("NormalizePath = %q", got)
	}
}
