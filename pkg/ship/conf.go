package ship

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Conf holds ship-level configuration.
type Conf struct {
	// --- Identity ---
	ShipName string `yaml:"ship_name"`
	Blocks   int    `yaml:"blocks"`

	// --- Scripting ---
	ScriptsEnabled bool   `yaml:"scripts_enabled"`
	ScriptsDir     string `yaml:"scripts_dir"` // Base directory for script files
	EventList      string `yaml:"event_list"`  // Hook configuration document
	HotReload      bool   `yaml:"hot_reload"`  // Reload hooks when EventList changes

	// --- Script storage ---
	StorageDB string `yaml:"storage_db"` // bbolt file for script key/value state

	// --- SQL ---
	SQLEnabled    bool   `yaml:"sql_enabled"`
	SQLDatabase   string `yaml:"sql_database"`    // Path to SQLite3 file
	SQLQueryLimit int    `yaml:"sql_query_limit"` // Max rows returned (default 100)
	SQLTimeout    int    `yaml:"sql_timeout"`     // Query timeout in seconds (default 5)

	// --- Admin API ---
	AdminEnabled      bool     `yaml:"admin_enabled"`
	AdminPort         int      `yaml:"admin_port"` // default 8990
	AdminHost         string   `yaml:"admin_host"` // Bind address (empty = all interfaces)
	AdminUser         string   `yaml:"admin_user"`
	AdminPasswordHash string   `yaml:"admin_password_hash"` // crypt(3) hash
	AdminCORSOrigins  []string `yaml:"admin_cors_origins"`
	AdminRateLimit    int      `yaml:"admin_rate_limit"` // Requests per minute per IP (default 60)
	JWTSecret         string   `yaml:"jwt_secret"`       // Auto-generated if empty
	JWTExpiry         int      `yaml:"jwt_expiry"`       // Seconds (default 86400)
}

// DefaultConf returns a Conf with working defaults.
func DefaultConf() *Conf {
	return &Conf{
		ShipName:       "Ship",
		Blocks:         2,
		ScriptsEnabled: true,
		ScriptsDir:     "scripts",
		EventList:      "scripts/scripts.xml",
		HotReload:      false,
		StorageDB:      "scriptdata.db",
		SQLEnabled:     false,
		SQLQueryLimit:  100,
		SQLTimeout:     5,
		AdminEnabled:   false,
		AdminPort:      8990,
		AdminRateLimit: 60,
		JWTExpiry:      86400,
	}
}

// LoadConf reads a YAML config file over the defaults. Relative script
// paths are resolved against the config file's directory.
func LoadConf(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	c := DefaultConf()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing YAML %s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	if !filepath.IsAbs(c.ScriptsDir) {
		c.ScriptsDir = filepath.Join(baseDir, c.ScriptsDir)
	}
	if !filepath.IsAbs(c.EventList) {
		c.EventList = filepath.Join(baseDir, c.EventList)
	}

	return c, nil
}
