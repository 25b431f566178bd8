package util

import (
	"os"
	"strings"
)

const DefaultDataDir = ".onechoice"

// Config holds runtime settings and flags.
type Config struct {
	DSN       string // Postgres; empty selects the file store
	DataDir   string // file store root
	ScenesDir string // overrides the embedded scene catalogs when set
	Language  string // en|ru; empty keeps the persisted choice
	Theme     string
	Debug     bool
	Headless  bool
	Version   string
}

// LoadConfig reads the environment. Flags in main override the result.
func LoadConfig() Config {
	cfg := Config{
		DSN:       os.Getenv("DATABASE_URL"),
		DataDir:   getenv("ONECHOICE_DATA_DIR", DefaultDataDir),
		ScenesDir: os.Getenv("ONECHOICE_SCENES_DIR"),
		Language:  strings.ToLower(os.Getenv("ONECHOICE_LANG")),
		Theme:     getenv("ONECHOICE_THEME", "ink"),
		Debug:     truthy(os.Getenv("ONECHOICE_DEBUG")),
	}
	return cfg
}

// UsePostgres reports whether the durable store is Postgres rather than files.
func (c Config) UsePostgres() bool { return strings.TrimSpace(c.DSN) != "" }

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
