package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic trim",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "multiple spaces",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\nworld",
			want:  "hello world",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Spa™ ",
			want:  "Café & Spa™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeNotes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keeps line breaks",
			input: "  bring   sheet music \n  second line  ",
			want:  "bring sheet music\nsecond line",
		},
		{
			name:  "single line",
			input: "\tfirst   lesson ",
			want:  "first lesson",
		},
		{
			name:  "empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeNotes(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeNotes(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeNotes(got); again != got {
				t.Errorf("NormalizeNotes is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trim and collapse",
			input: []string{" jazz  piano ", "Guitar"},
			want:  []string{"jazz piano", "Guitar"},
		},
		{
			name:  "remove duplicates",
			input: []string{"Guitar", " Guitar "},
			want:  []string{"Guitar"},
		},
		{
			name:  "keeps case distinct",
			input: []string{"Guitar", "guitar"},
			want:  []string{"Guitar", "guitar"},
		},
		{
			name:  "filter empty strings",
			input: []string{"", "  ", "Vocals"},
			want:  []string{"Vocals"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
