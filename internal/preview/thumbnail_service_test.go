package preview

import "testing"

func TestThumbnailTime(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		want     string
	}{
		{"short clip", 5, "00:00:01"},
		{"boundary ten seconds", 10, "00:00:01"},
		{"one minute", 60, "00:00:06"},
		{"ten minutes", 600, "00:01:00"},
		{"two hours", 7200, "00:12:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := thumbnailTime(tt.duration); got != tt.want {
				t.Errorf("thumbnailTime(%v) = %s, want %s", tt.duration, got, tt.want)
			}
		})
	}
}

func TestCalculateNewDimensions(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		maxSize    int
		wantWidth  int
		wantHeight int
	}{
		{"landscape", 1920, 1080, 1024, 1024, 576},
		{"portrait", 1080, 1920, 1024, 576, 1024},
		{"square", 512, 512, 1024, 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := calculateNewDimensions(tt.width, tt.height, tt.maxSize)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("calculateNewDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.width, tt.height, tt.maxSize, w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}
