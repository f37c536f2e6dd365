package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

const DefaultRuntimeSettingsFile = "./config/settings.json"

// RuntimeSettings are the operator-editable overrides applied on top of the
// environment. Empty fields keep the environment value.
type RuntimeSettings struct {
	LLMAPIURL      string   `json:"llm_api_url,omitempty"`
	LLMAPIKey      string   `json:"llm_api_key,omitempty"`
	LLMModel       string   `json:"llm_model,omitempty"`
	CronExpr       string   `json:"cron_expr,omitempty"`
	TargetLanguage string   `json:"target_language,omitempty"`
	NPCChannels    []string `json:"npc_channels,omitempty"`
	Skip           *bool    `json:"skip,omitempty"`
	Fix            *bool    `json:"fix,omitempty"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.CronExpr) != "" {
		if _, err := cron.ParseStandard(s.CronExpr); err != nil {
			return fmt.Errorf("invalid cron_expr: %w", err)
		}
	}
	if strings.TrimSpace(s.TargetLanguage) != "" {
		if _, err := language.Parse(s.TargetLanguage); err != nil {
			return fmt.Errorf("invalid target_language: %w", err)
		}
	}
	for _, code := range s.NPCChannels {
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("npc_channels must not contain empty codes")
		}
	}
	return nil
}

// RuntimeSettings snapshots the overridable part of c.
func (c *Config) RuntimeSettings() RuntimeSettings {
	skip, fix := c.Translate.Skip, c.Translate.Fix
	return RuntimeSettings{
		LLMAPIURL:      c.LLM.APIURL,
		LLMModel:       c.LLM.Model,
		CronExpr:       c.Service.CronExpr,
		TargetLanguage: c.Translate.TargetLanguage.String(),
		NPCChannels:    append([]string(nil), c.Translate.NPCChannels...),
		Skip:           &skip,
		Fix:            &fix,
	}
}

func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.LLMAPIURL) != "" {
			c.LLM.APIURL = settings.LLMAPIURL
		}
		if strings.TrimSpace(settings.LLMAPIKey) != "" {
			c.LLM.APIKey = settings.LLMAPIKey
		}
		if strings.TrimSpace(settings.LLMModel) != "" {
			c.LLM.Model = settings.LLMModel
		}
		if strings.TrimSpace(settings.CronExpr) != "" {
			c.Service.CronExpr = settings.CronExpr
		}
		if tag, err := language.Parse(settings.TargetLanguage); err == nil {
			c.Translate.TargetLanguage = tag
		}
		if len(settings.NPCChannels) > 0 {
			c.Translate.NPCChannels = append([]string(nil), settings.NPCChannels...)
		}
		if settings.Skip != nil {
			c.Translate.Skip = *settings.Skip
		}
		if settings.Fix != nil {
			c.Translate.Fix = *settings.Fix
		}
	}
}

func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return RuntimeSettings{}, err
	}
	return settings, nil
}

// LoadRuntimeSettingsOption returns an Option applying the settings file at
// path, or a no-op Option when the file does not exist.
func LoadRuntimeSettingsOption(path string) (Option, error) {
	settings, err := LoadRuntimeSettingsFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return func(*Config) {}, nil
	}
	if err != nil {
		return nil, err
	}
	return WithRuntimeSettings(settings), nil
}

func WriteRuntimeSettingsFile(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
