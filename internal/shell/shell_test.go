package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	detector := NewDetector("")

	tests := []struct {
		name      string
		userAgent string
		want      Mode
	}{
		{
			name:      "plain browser",
			userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
			want:      ModeWeb,
		},
		{
			name:      "native shell marker",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) ShellBridge/2.1",
			want:      ModeNative,
		},
		{
			name:      "marker is case-insensitive",
			userAgent: "Mozilla/5.0 shellbridge/2.1",
			want:      ModeNative,
		},
		{
			name:      "marker uppercase",
			userAgent: "SHELLBRIDGE",
			want:      ModeNative,
		},
		{
			name:      "empty user agent defaults to web",
			userAgent: "",
			want:      ModeWeb,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Detect(tt.userAgent))
		})
	}
}

func TestCustomMarker(t *testing.T) {
	detector := NewDetector("AcmeShell")

	assert.Equal(t, ModeNative, detector.Detect("Mozilla/5.0 acmeshell/1.0"))
	assert.Equal(t, ModeWeb, detector.Detect("Mozilla/5.0 ShellBridge/2.1"))
	assert.True(t, detector.IsNativeShell("AcmeShell"))
	assert.False(t, detector.IsNativeShell(""))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "web", ModeWeb.String())
	assert.Equal(t, "native", ModeNative.String())
}
