package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gorm.io/gorm"

	"docxtract-desktop/internal/api"
	"docxtract-desktop/internal/config"
	"docxtract-desktop/internal/database"
	"docxtract-desktop/internal/models"
	"docxtract-desktop/internal/services/audit"
	"docxtract-desktop/internal/services/joblist"
	"docxtract-desktop/internal/services/monitor"
	"docxtract-desktop/internal/services/selection"
	"docxtract-desktop/internal/services/upload"
	"docxtract-desktop/internal/settings"
	"docxtract-desktop/internal/view"
)

// App struct - main application state
type App struct {
	ctx context.Context
	db  *gorm.DB

	clientMu sync.RWMutex
	client   *api.Client

	sink             *view.WailsSink
	settingsService  *settings.Service
	auditService     *audit.Service
	selectionService *selection.Service
	monitorService   *monitor.Service
	joblistService   *joblist.Service
	uploadService    *upload.Service
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// Client returns the current API client. Services hold the App, not the
// client, so a settings change takes effect on their next request.
func (a *App) Client() *api.Client {
	a.clientMu.RLock()
	defer a.clientMu.RUnlock()
	return a.client
}

func (a *App) rebuildClient() {
	a.clientMu.Lock()
	a.client = api.NewClient(a.settingsService.ServerURL(), a.settingsService.APIToken())
	a.clientMu.Unlock()
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	log.Println("Application starting up...")

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	a.db = db
	log.Println("Database initialized successfully")

	a.settingsService = settings.NewService(db, cfg.ServerURL)
	a.rebuildClient()
	log.Printf("API client initialized for %s", a.Client().BaseURL())

	a.sink = view.NewWailsSink(ctx)
	a.auditService = audit.NewService(db)
	a.selectionService = selection.NewService(a.sink)

	a.monitorService = monitor.NewService(a, a.sink)
	a.monitorService.SetOnTerminal(a.auditService.RecordOutcome)
	a.monitorService.SetOnRevert(a.selectionService.Clear)

	a.uploadService = upload.NewService(a, a.sink, a.selectionService, a.monitorService, a.auditService)

	a.joblistService = joblist.NewService(a, a.sink)
	if err := a.joblistService.Start(); err != nil {
		log.Printf("WARNING: Failed to start job list synchronizer: %v", err)
	}

	a.sink.ShowState(view.StateSelecting)
	log.Println("Startup complete")
}

// shutdown is called when the app is closing
func (a *App) shutdown(ctx context.Context) {
	log.Println("Application shutting down...")

	if a.joblistService != nil {
		a.joblistService.Stop()
	}
	if a.monitorService != nil {
		a.monitorService.Stop()
	}

	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}

// ====================================================================================
// WAILS-BOUND METHODS - Exposed to Frontend
// ====================================================================================

// Selection Methods

// ChooseFiles opens the native file dialog and adds the chosen documents to
// the selection.
func (a *App) ChooseFiles() error {
	paths, err := runtime.OpenMultipleFilesDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select PDF documents",
		Filters: []runtime.FileFilter{
			{DisplayName: "PDF documents (*.pdf)", Pattern: "*.pdf"},
		},
	})
	if err != nil {
		return fmt.Errorf("file dialog failed: %w", err)
	}
	if len(paths) == 0 {
		return nil
	}
	return a.AddFiles(paths)
}

// AddFiles adds the given paths to the selection (drag-and-drop path).
func (a *App) AddFiles(paths []string) error {
	if err := a.selectionService.Add(paths); err != nil {
		if errors.Is(err, selection.ErrNoValidFiles) {
			a.sink.Notify(view.NoticeError, "Please select PDF files only")
		}
		return err
	}
	return nil
}

// RemoveFile removes one entry from the selection by index.
func (a *App) RemoveFile(index int) error {
	return a.selectionService.Remove(index)
}

// ClearSelection empties the selection.
func (a *App) ClearSelection() {
	a.selectionService.Clear()
}

// Upload Methods

// SubmitUpload uploads the current selection and starts monitoring the
// resulting job.
func (a *App) SubmitUpload() error {
	return a.uploadService.Submit()
}

// DownloadCSV opens the CSV export of a completed job in the system browser.
func (a *App) DownloadCSV(jobID string) error {
	if jobID == "" {
		return errors.New("job id is required")
	}
	runtime.BrowserOpenURL(a.ctx, a.Client().DownloadCSVURL(jobID))
	return nil
}

// DownloadJSON opens the JSON export of a completed job in the system browser.
func (a *App) DownloadJSON(jobID string) error {
	if jobID == "" {
		return errors.New("job id is required")
	}
	runtime.BrowserOpenURL(a.ctx, a.Client().DownloadJSONURL(jobID))
	return nil
}

// History Methods

// ListUploadHistory retrieves recent submissions from the local audit trail
func (a *App) ListUploadHistory(limit int) ([]models.UploadRecord, error) {
	return a.auditService.ListRecent(limit)
}

// Settings Methods

// SettingsResponse carries the editable connection settings. The token value
// never leaves the keyring; only its presence is reported.
type SettingsResponse struct {
	ServerURL string `json:"server_url"`
	HasToken  bool   `json:"has_token"`
}

// SaveSettingsRequest updates the connection settings. An empty token clears
// the stored one.
type SaveSettingsRequest struct {
	ServerURL string `json:"server_url"`
	APIToken  string `json:"api_token"`
}

// GetSettings returns the current connection settings.
func (a *App) GetSettings() SettingsResponse {
	return SettingsResponse{
		ServerURL: a.settingsService.ServerURL(),
		HasToken:  a.settingsService.APIToken() != "",
	}
}

// SaveSettings persists the connection settings and rebuilds the API client.
func (a *App) SaveSettings(req SaveSettingsRequest) error {
	if err := a.settingsService.SetServerURL(req.ServerURL); err != nil {
		return err
	}
	if err := a.settingsService.SetAPIToken(req.APIToken); err != nil {
		return err
	}

	a.rebuildClient()
	a.sink.Notify(view.NoticeInfo, "Settings saved")
	log.Printf("Settings saved, API client rebuilt for %s", a.Client().BaseURL())
	return nil
}

// TestConnectionResponse represents the test result
type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TestConnection checks the given endpoint without saving it.
func (a *App) TestConnection(serverURL string) TestConnectionResponse {
	client := api.NewClient(serverURL, a.settingsService.APIToken())
	if _, err := client.ListJobs(); err != nil {
		return TestConnectionResponse{
			Success: false,
			Error:   fmt.Sprintf("Connection failed: %v", err),
		}
	}
	return TestConnectionResponse{Success: true}
}
