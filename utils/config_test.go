package utils

import (
	"path/filepath"
	"testing"
)

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	config := &Config{
		Provider: ProviderConfig{
			APIKey:     "sk-test",
			Model:      "gpt-4o",
			ImageModel: "dall-e-3",
		},
		Data:  DataConfig{DataDir: t.TempDir(), DBPath: filepath.Join(t.TempDir(), "index.db")},
		Image: ImageConfig{Size: "1024x1024", Quality: "hd", Count: 2},
		Modes: map[string]string{"Pirate": "Answer like a pirate."},
	}

	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Provider.Model != "gpt-4o" || loaded.Provider.APIKey != "sk-test" {
		t.Errorf("Provider config changed in round trip: %+v", loaded.Provider)
	}
	if loaded.Image.Count != 2 {
		t.Errorf("Image config changed in round trip: %+v", loaded.Image)
	}
	if loaded.Modes["Pirate"] == "" {
		t.Errorf("Mode overrides should survive the round trip: %+v", loaded.Modes)
	}
}

func TestConfig_APIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := SaveConfig(path, &Config{}); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Provider.APIKey != "sk-from-env" {
		t.Errorf("Empty API key should fall back to the environment, got: %q", loaded.Provider.APIKey)
	}
}

func TestDataConfig_DirectoryLayout(t *testing.T) {
	d := DataConfig{DataDir: "/data"}

	if got := d.ThreadsDir(); got != filepath.Join("/data", "thread_history") {
		t.Errorf("Unexpected threads dir: %s", got)
	}
	if got := d.UploadedImagesDir(); got != filepath.Join("/data", "uploaded_images") {
		t.Errorf("Unexpected uploads dir: %s", got)
	}
	if got := d.GeneratedImagesDir(); got != filepath.Join("/data", "generated_images") {
		t.Errorf("Unexpected generations dir: %s", got)
	}
	if got := d.InpaintingImagesDir(); got != filepath.Join("/data", "inpainting_images") {
		t.Errorf("Unexpected inpainting dir: %s", got)
	}
}
