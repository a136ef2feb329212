package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDependency(t *testing.T) {
	tests := []struct {
		dep      string
		name     string
		optional bool
	}{
		{"config", "config", false},
		{"optional:telemetry", "telemetry", true},
		{"optional:", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dep, func(t *testing.T) {
			name, optional := ParseDependency(tt.dep)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.optional, optional)
		})
	}
}
