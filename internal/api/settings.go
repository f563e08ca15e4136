package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dkovalev/camdvr/internal/config"
)

// SettingsResponse wraps the on-disk settings document.
type SettingsResponse struct {
	Body config.Settings
}

// registerSettingsRoutes registers read and replace endpoints for the
// settings file. A successful PUT is picked up by the config watcher,
// so new values apply from the next recording session.
func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Description: "Get the recorder and retention settings from the config file",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*SettingsResponse, error) {
		settings, err := config.LoadSettings(s.options.ConfigPath)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to load settings", err)
		}
		return &SettingsResponse{Body: settings}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPut,
		Path:        "/api/settings",
		Summary:     "Update Settings",
		Description: "Replace the recorder and retention settings. Values take effect on the next recording session and retention cycle.",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{401, 422, 500},
	}, func(ctx context.Context, input *struct {
		Body config.Settings
	}) (*SettingsResponse, error) {
		settings := input.Body
		if settings.Version == 0 {
			settings.Version = 1
		}
		if err := settings.Validate(); err != nil {
			return nil, huma.Error422UnprocessableEntity("Invalid settings", err)
		}
		if err := config.SaveSettings(s.options.ConfigPath, settings); err != nil {
			return nil, huma.Error500InternalServerError("Failed to save settings", err)
		}
		s.logger.Info("Settings updated via API", "path", s.options.ConfigPath)
		return &SettingsResponse{Body: settings}, nil
	})
}
