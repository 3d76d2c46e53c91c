package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Provider ProviderConfig    `json:"provider"`
	Data     DataConfig        `json:"data"`
	Image    ImageConfig       `json:"image"`
	Modes    map[string]string `json:"modes,omitempty"` // overrides the built-in behavior profiles
}

// ProviderConfig represents completion API configuration
type ProviderConfig struct {
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	ImageModel  string  `json:"image_model"`
	EditModel   string  `json:"edit_model"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// DataConfig represents data storage configuration
type DataConfig struct {
	DataDir string `json:"data_dir"`
	DBPath  string `json:"db_path"`
}

// ThreadsDir is where thread records live
func (d DataConfig) ThreadsDir() string { return filepath.Join(d.DataDir, "thread_history") }

// UploadedImagesDir is where uploaded attachments live
func (d DataConfig) UploadedImagesDir() string { return filepath.Join(d.DataDir, "uploaded_images") }

// GeneratedImagesDir is where generation batches live
func (d DataConfig) GeneratedImagesDir() string { return filepath.Join(d.DataDir, "generated_images") }

// InpaintingImagesDir is where inpainting results live
func (d DataConfig) InpaintingImagesDir() string {
	return filepath.Join(d.DataDir, "inpainting_images")
}

// ImageConfig represents default image generation options
type ImageConfig struct {
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Count   int    `json:"count"`
}

// LoadConfig loads configuration from file. A missing API key falls
// back to the OPENAI_API_KEY environment variable; a .env file next to
// the binary is honored.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Data.DataDir != "" {
		config.Data.DataDir = expandPath(config.Data.DataDir)
	}
	if config.Data.DBPath != "" {
		config.Data.DBPath = expandPath(config.Data.DBPath)
	}

	if config.Provider.APIKey == "" {
		_ = godotenv.Load()
		config.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(configPath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ and relative paths
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}

	return path
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./config/default.json"
	}

	return filepath.Join(configDir, "llm-chat-studio", "config.json")
}

// EnsureDefaultConfig creates a default config file if it doesn't exist
func EnsureDefaultConfig() (string, error) {
	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	defaultConfig := &Config{
		Provider: ProviderConfig{
			APIKey:      "",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			ImageModel:  "dall-e-3",
			EditModel:   "dall-e-2",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Data: DataConfig{
			DataDir: "./data",
			DBPath:  "./data/index.db",
		},
		Image: ImageConfig{
			Size:    "1024x1024",
			Quality: "standard",
			Count:   1,
		},
	}

	if err := SaveConfig(configPath, defaultConfig); err != nil {
		return "", err
	}

	return configPath, nil
}
