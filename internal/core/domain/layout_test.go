package domain_test

import (
	"path/filepath"
	"testing"

	"go.zr.dev/zr/internal/core/domain"
)

func TestLayoutPaths(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "DefaultZrPath",
			got:      domain.DefaultZrPath(),
			expected: ".zr",
		},
		{
			name:     "DefaultStorePath",
			got:      domain.DefaultStorePath(),
			expected: filepath.Join(".zr", "store"),
		},
		{
			name:     "DefaultNixHubCachePath",
			got:      domain.DefaultNixHubCachePath(),
			expected: filepath.Join(".zr", "cache", "nixhub"),
		},
		{
			name:     "DefaultEnvCachePath",
			got:      domain.DefaultEnvCachePath(),
			expected: filepath.Join(".zr", "cache", "environments"),
		},
		{
			name:     "DefaultDebugLogPath",
			got:      domain.DefaultDebugLogPath(),
			expected: filepath.Join(".zr", "debug.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s() = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}
