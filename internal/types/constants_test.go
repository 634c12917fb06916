package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildAllowedOrigins(t *testing.T) {
	t.Setenv("CLIENT_URL", "https://app.example.edu")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.edu, ,https://b.example.edu")

	got := buildAllowedOrigins()

	assert.Contains(t, got, "http://localhost:5173")
	assert.Contains(t, got, "https://app.example.edu")
	assert.Contains(t, got, "https://a.example.edu")
	assert.Contains(t, got, "https://b.example.edu")
	assert.NotContains(t, got, "")
	assert.NotContains(t, got, " ")
}

func TestBuildAllowedOriginsDefaultsOnly(t *testing.T) {
	t.Setenv("CLIENT_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	assert.Len(t, buildAllowedOrigins(), 3)
}
