package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"docxtract-desktop/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "settings_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AppSetting{}))
	return db
}

func TestServerURL(t *testing.T) {
	t.Run("Should fall back to the default until one is saved", func(t *testing.T) {
		svc := NewService(newTestDB(t), "http://localhost:8000")
		assert.Equal(t, "http://localhost:8000", svc.ServerURL())
	})

	t.Run("Should persist and normalize the saved endpoint", func(t *testing.T) {
		svc := NewService(newTestDB(t), "http://localhost:8000")

		require.NoError(t, svc.SetServerURL("https://extractor.example.com/"))
		assert.Equal(t, "https://extractor.example.com", svc.ServerURL())
	})

	t.Run("Should overwrite a previously saved endpoint", func(t *testing.T) {
		svc := NewService(newTestDB(t), "http://localhost:8000")
		require.NoError(t, svc.SetServerURL("https://one.example.com"))

		require.NoError(t, svc.SetServerURL("https://two.example.com"))
		assert.Equal(t, "https://two.example.com", svc.ServerURL())
	})
}

func TestSetServerURL(t *testing.T) {
	t.Run("Should reject unusable endpoints", func(t *testing.T) {
		svc := NewService(newTestDB(t), "http://localhost:8000")

		tests := []struct {
			name  string
			input string
		}{
			{name: "Empty", input: ""},
			{name: "Whitespace only", input: "   "},
			{name: "No scheme", input: "extractor.example.com"},
			{name: "Scheme only", input: "https://"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Error(t, svc.SetServerURL(tt.input))
			})
		}

		// Nothing was saved; the default still applies.
		assert.Equal(t, "http://localhost:8000", svc.ServerURL())
	})
}
