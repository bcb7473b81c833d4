package whisper

import (
	"testing"

	"videonote/internal/models"
)

func TestParseSegmentLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want models.TranscriptionSegment
		ok   bool
	}{
		{
			name: "plain segment",
			line: "[00:00:00.000 --> 00:00:04.600]   Welcome to the channel.",
			want: models.TranscriptionSegment{Start: 0, End: 4.6, Text: "Welcome to the channel."},
			ok:   true,
		},
		{
			name: "hour boundary",
			line: "[01:02:03.500 --> 01:02:07.250] later text",
			want: models.TranscriptionSegment{Start: 3723.5, End: 3727.25, Text: "later text"},
			ok:   true,
		},
		{
			name: "comma millis",
			line: "[00:00:01,200 --> 00:00:02,400] comma style",
			want: models.TranscriptionSegment{Start: 1.2, End: 2.4, Text: "comma style"},
			ok:   true,
		},
		{name: "no bracket", line: "whisper_init_state: compute buffer", ok: false},
		{name: "empty text", line: "[00:00:00.000 --> 00:00:01.000]   ", ok: false},
		{name: "missing arrow", line: "[00:00:00.000 00:00:01.000] text", ok: false},
		{name: "empty line", line: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSegmentLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		ts      string
		want    float64
		wantErr bool
	}{
		{"00:00:04.600", 4.6, false},
		{"01:00:00.000", 3600, false},
		{"02:30.500", 150.5, false},
		{"00:00:01,200", 1.2, false},
		{"5", 0, true},
		{"a:b:c", 0, true},
		{"1:2:3:4", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.ts)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimestamp(%q) error = %v, wantErr %v", tt.ts, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.ts, got, tt.want)
		}
	}
}

func TestParseLanguageLine(t *testing.T) {
	lang, ok := ParseLanguageLine("whisper_full_with_state: auto-detected language: en (p = 0.976406)")
	if !ok || lang != "en" {
		t.Errorf("got (%q, %v), want (en, true)", lang, ok)
	}

	lang, ok = ParseLanguageLine("auto-detected language: zh")
	if !ok || lang != "zh" {
		t.Errorf("got (%q, %v), want (zh, true)", lang, ok)
	}

	if _, ok := ParseLanguageLine("whisper_init_from_file_with_params_no_state: loading model"); ok {
		t.Error("expected no language from an unrelated line")
	}
}
