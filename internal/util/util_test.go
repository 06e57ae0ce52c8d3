package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPrefixes(t *testing.T) {
	tests := []struct {
		src      string
		prefixes []string
		want     bool
	}{
		{"/api/v1/chat", []string{"/api", "/metrics"}, true},
		{"/metrics", []string{"/api", "/metrics"}, true},
		{"/index.html", []string{"/api", "/metrics"}, false},
		{"/api", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasPrefixes(tt.src, tt.prefixes...), tt.src)
	}
}
