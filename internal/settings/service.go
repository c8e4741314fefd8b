package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
	"gorm.io/gorm"

	"docxtract-desktop/internal/models"
)

const (
	keyServerURL = "server_url"

	keystoreService = "docxtract-desktop"
	keystoreUser    = "api-token"
)

// Service persists the connection settings: the server endpoint in the local
// database, the optional API token in the OS keyring. Secrets never touch
// the database.
type Service struct {
	db         *gorm.DB
	defaultURL string
}

// NewService creates a new Settings service. defaultURL is used until the
// user saves an endpoint.
func NewService(db *gorm.DB, defaultURL string) *Service {
	return &Service{db: db, defaultURL: defaultURL}
}

// ServerURL returns the configured endpoint, falling back to the default.
func (s *Service) ServerURL() string {
	var setting models.AppSetting
	if err := s.db.Where("key = ?", keyServerURL).First(&setting).Error; err != nil {
		return s.defaultURL
	}
	if setting.Value == "" {
		return s.defaultURL
	}
	return setting.Value
}

// SetServerURL validates and stores the endpoint.
func (s *Service) SetServerURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("server URL is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid server URL: %s", raw)
	}

	setting := models.AppSetting{Key: keyServerURL, Value: strings.TrimRight(raw, "/")}
	if err := s.db.Save(&setting).Error; err != nil {
		return fmt.Errorf("failed to save server URL: %w", err)
	}
	return nil
}

// APIToken loads the token from the keyring; a missing entry is an empty
// token, not an error.
func (s *Service) APIToken() string {
	token, err := keyring.Get(keystoreService, keystoreUser)
	if err != nil {
		return ""
	}
	return token
}

// SetAPIToken stores the token in the keyring; an empty token deletes the
// entry.
func (s *Service) SetAPIToken(token string) error {
	if token == "" {
		if err := keyring.Delete(keystoreService, keystoreUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to clear API token: %w", err)
		}
		return nil
	}

	if err := keyring.Set(keystoreService, keystoreUser, token); err != nil {
		return fmt.Errorf("failed to store API token: %w", err)
	}
	return nil
}
