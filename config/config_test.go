package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOURNEY_API_BASE_URL", "https://api.example.com/")
	t.Setenv("TOURNEY_CLOUDINARY_CLOUD_NAME", "demo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "/api/tournaments", cfg.CollectionPath)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, UploadBackendCloudinary, cfg.Upload.Backend)
	assert.Equal(t, "tourney", cfg.Upload.CloudinaryUploadPreset)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.DarkMode)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("TOURNEY_API_BASE_URL", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOURNEY_API_BASE_URL")
}

func TestLoadRejectsUnknownUploadBackend(t *testing.T) {
	t.Setenv("TOURNEY_API_BASE_URL", "https://api.example.com")
	t.Setenv("TOURNEY_UPLOAD_BACKEND", "ftp")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadJWTSecretNeedsUser(t *testing.T) {
	t.Setenv("TOURNEY_API_BASE_URL", "https://api.example.com")
	t.Setenv("TOURNEY_CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("TOURNEY_SESSION_JWT_SECRET", "secret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("TOURNEY_SESSION_USER_ID", "user-1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "user-1", cfg.Session.UserID)
	assert.Equal(t, time.Hour, cfg.Session.TokenTTL)
}
