package keyword

import "testing"

func TestDefaults_Apply(t *testing.T) {
	defaults := Defaults{Device: "m", Engine: "google"}

	tests := []struct {
		name       string
		record     Record
		defaults   Defaults
		wantDevice string
		wantEngine string
	}{
		{
			name:       "fills absent fields",
			record:     Record{"name": "a"},
			defaults:   defaults,
			wantDevice: "m",
			wantEngine: "google",
		},
		{
			name:       "keeps existing device",
			record:     Record{"name": "a", "device": "d"},
			defaults:   defaults,
			wantDevice: "d",
			wantEngine: "google",
		},
		{
			name:       "keeps existing engine",
			record:     Record{"name": "a", "engine": "bing"},
			defaults:   defaults,
			wantDevice: "m",
			wantEngine: "bing",
		},
		{
			name:       "fills empty elements",
			record:     Record{"name": "a", "device": nil, "engine": nil},
			defaults:   defaults,
			wantDevice: "m",
			wantEngine: "google",
		},
		{
			name:       "empty defaults are skipped",
			record:     Record{"name": "a"},
			defaults:   Defaults{},
			wantDevice: "",
			wantEngine: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.defaults.Apply(tt.record)
			if got := tt.record.String(FieldDevice); got != tt.wantDevice {
				t.Errorf("device = %q, want %q", got, tt.wantDevice)
			}
			if got := tt.record.String(FieldEngine); got != tt.wantEngine {
				t.Errorf("engine = %q, want %q", got, tt.wantEngine)
			}
		})
	}
}

func TestDefaults_ApplyIsIdempotent(t *testing.T) {
	defaults := Defaults{Device: "m", Engine: "google"}
	record := Record{"device": "d"}

	defaults.Apply(record)
	Defaults{Device: "x", Engine: "y"}.Apply(record)

	if got := record.String(FieldDevice); got != "d" {
		t.Errorf("device = %q, want %q", got, "d")
	}
	if got := record.String(FieldEngine); got != "google" {
		t.Errorf("engine = %q, want %q", got, "google")
	}
}

func TestRecord_SetDefault(t *testing.T) {
	r := Record{"engine": "bing"}

	if r.SetDefault("engine", "google") {
		t.Error("SetDefault() overwrote an existing value")
	}
	if !r.SetDefault("device", "m") {
		t.Error("SetDefault() did not store an absent value")
	}
	if v, ok := r.Get("device"); !ok || v != "m" {
		t.Errorf("Get(device) = %v, %v", v, ok)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "12", want: "12"},
		{name: "text with attributes", in: map[string]any{"@unit": "monthly", "#text": "880"}, want: "880"},
		{
			name: "nested element",
			in: map[string]any{
				"competitor": []any{"a.com", "b.com"},
			},
			want: `{"competitor":["a.com","b.com"]}`,
		},
		{name: "list", in: []any{"a", nil}, want: `["a",null]`},
		{name: "other scalar", in: 42, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}
