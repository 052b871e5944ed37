package query

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]any
		want     string
	}{
		{
			name:     "space is percent encoded",
			template: "device/{id}",
			values:   map[string]any{"id": "a b"},
			want:     "device/a%20b",
		},
		{
			name:     "reserved characters encoded",
			template: "zone/{id}",
			values:   map[string]any{"id": "x/y?z&w=1"},
			want:     "zone/x%2Fy%3Fz%26w%3D1",
		},
		{
			name:     "unreserved characters kept",
			template: "{id}",
			values:   map[string]any{"id": "A-z_0.9!~*'()"},
			want:     "A-z_0.9!~*'()",
		},
		{
			name:     "absent value is empty",
			template: "device/{deviceId}/forecast?units={units}",
			values:   map[string]any{"deviceId": "d1"},
			want:     "device/d1/forecast?units=",
		},
		{
			name:     "falsy values are empty",
			template: "{a}|{b}|{c}|{d}",
			values:   map[string]any{"a": 0, "b": false, "c": "", "d": nil},
			want:     "|||",
		},
		{
			name:     "numbers",
			template: "event?startTime={start}&duration={d}",
			values:   map[string]any{"start": int64(1767225600000), "d": 3600},
			want:     "event?startTime=1767225600000&duration=3600",
		},
		{
			name:     "adjacent placeholders",
			template: "{a}{b}",
			values:   map[string]any{"a": "1", "b": "2"},
			want:     "12",
		},
		{
			name:     "unicode is utf-8 encoded",
			template: "{n}",
			values:   map[string]any{"n": "é"},
			want:     "%C3%A9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewURLInterpolator(tt.template).Interpolate(tt.values)
			if got != tt.want {
				t.Errorf("Interpolate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterpolate_TimeValues(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got := Interpolate("{t}|{z}", map[string]any{"t": at, "z": time.Time{}})

	if got != "1767225600000|" {
		t.Errorf("Interpolate() = %q, want %q", got, "1767225600000|")
	}
}

func TestInterpolate_EscapesTemplateLiterals(t *testing.T) {
	template := "line1\nsay \"{word}\"\u2028end\u2029"

	got := NewURLInterpolator(template).Interpolate(map[string]any{"word": "hi there"})
	want := `line1\nsay \"hi%20there\"\u2028end\u2029`

	if got != want {
		t.Errorf("Interpolate() = %q, want %q", got, want)
	}
	if strings.ContainsAny(got, "\n\u2028\u2029") {
		t.Error("output still contains raw line terminators")
	}
}

func TestInterpolate_ValuesAreNotLiteralEscaped(t *testing.T) {
	got := Interpolate("{v}", map[string]any{"v": "a\"b\nc"})

	if got != "a%22b%0Ac" {
		t.Errorf("Interpolate() = %q, want %q", got, "a%22b%0Ac")
	}
}

func TestInterpolator_Placeholders(t *testing.T) {
	i := NewURLInterpolator("device/{deviceId}/event?startTime={startTime}&endTime={endTime}")

	want := []string{"deviceId", "startTime", "endTime"}
	if got := i.Placeholders(); !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
	if i.Template() != "device/{deviceId}/event?startTime={startTime}&endTime={endTime}" {
		t.Errorf("Template() = %q", i.Template())
	}
}
