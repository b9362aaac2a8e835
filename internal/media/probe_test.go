package media

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{"plain seconds", "12.5\n", 12.5, false},
		{"integer seconds", "42", 42, false},
		{"surrounding whitespace", "  7.25  \n", 7.25, false},
		{"zero duration", "0", 0, true},
		{"negative duration", "-3.5", 0, true},
		{"not a number", "N/A", 0, true},
		{"empty output", "\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseDuration(%q) = %v, want error", tt.output, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDuration(%q): %v", tt.output, err)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}
