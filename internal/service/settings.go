package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/stgquant/stgtrade/config"
	"github.com/stgquant/stgtrade/internal/utils"
	"github.com/stgquant/stgtrade/models"
)

// ModelSettings assigns a model tier to every declared role, including
// the unscheduled ones so assignments survive a future pipeline change.
type ModelSettings struct {
	Assignment map[models.Role]string `json:"assignment"`
}

// DefaultModelSettings puts the decision-making roles on the pro tier
// and everything else on flash.
func DefaultModelSettings() ModelSettings {
	assignment := make(map[models.Role]string, len(models.AllRoles()))
	for _, role := range models.AllRoles() {
		switch role {
		case models.RoleRiskManager, models.RoleFundManager, models.RoleTrader:
			assignment[role] = config.ProModel
		default:
			assignment[role] = config.FlashModel
		}
	}
	return ModelSettings{Assignment: assignment}
}

// SettingsStore persists per-role model assignments as a whole map.
// Partial edits round-trip through Load then Save.
type SettingsStore struct {
	files   *utils.FileStore
	baseDir string
}

func NewSettingsStore(baseDir string) *SettingsStore {
	return &SettingsStore{
		files:   utils.NewFileStore("model_settings.json"),
		baseDir: baseDir,
	}
}

// Load reads the stored assignments, filling defaults for roles the
// file does not mention. A missing file yields pure defaults.
func (s *SettingsStore) Load() (ModelSettings, error) {
	defaults := DefaultModelSettings()

	path, err := s.files.Resolve(s.baseDir)
	if err != nil {
		return defaults, err
	}

	data, err := s.files.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("read model settings: %w", err)
	}

	var stored ModelSettings
	if err := json.Unmarshal(data, &stored); err != nil {
		return defaults, fmt.Errorf("parse model settings: %w", err)
	}
	for role, model := range stored.Assignment {
		if model != "" {
			defaults.Assignment[role] = model
		}
	}
	return defaults, nil
}

// Save writes the full assignment map.
func (s *SettingsStore) Save(settings ModelSettings) error {
	path, err := s.files.Resolve(s.baseDir)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model settings: %w", err)
	}
	return s.files.Write(path, data)
}
