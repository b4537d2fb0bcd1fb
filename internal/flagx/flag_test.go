package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-a", "localhost:8080", "-x", "other"},
			allowed: []string{"-a"},
			want:    []string{"-a", "localhost:8080"},
		},
		{
			name:    "equals form",
			args:    []string{"--addr=localhost:8080", "-x=1"},
			allowed: []string{"--addr"},
			want:    []string{"--addr=localhost:8080"},
		},
		{
			name:    "flag without value followed by another flag",
			args:    []string{"-v", "-a", "x"},
			allowed: []string{"-v"},
			want:    []string{"-v"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "b"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()

	os.Args = []string{"test", "-c", "conf.json", "-a", "addr"}
	assert.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"test", "-a", "addr"}
	assert.Equal(t, "", JsonConfigFlags())
}
