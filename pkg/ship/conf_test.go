package ship

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConf(t *testing.T) {
	c := DefaultConf()
	if !c.ScriptsEnabled {
		t.Error("scripts should default to enabled")
	}
	if c.SQLQueryLimit != 100 || c.SQLTimeout != 5 {
		t.Errorf("unexpected SQL defaults: limit=%d timeout=%d", c.SQLQueryLimit, c.SQLTimeout)
	}
	if c.AdminEnabled {
		t.Error("admin API should default to disabled")
	}
}

func TestLoadConf(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ship.yaml")
	body := `ship_name: Aurora
blocks: 4
scripts_dir: lua
event_list: lua/scripts.xml
hot_reload: true
sql_enabled: true
sql_database: ship.db
admin_enabled: true
admin_user: admin
admin_rate_limit: 30
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	c, err := LoadConf(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ShipName != "Aurora" || c.Blocks != 4 {
		t.Errorf("identity: name=%q blocks=%d", c.ShipName, c.Blocks)
	}
	if !c.HotReload || !c.SQLEnabled || !c.AdminEnabled {
		t.Error("bool fields not parsed")
	}
	if c.AdminRateLimit != 30 {
		t.Errorf("rate limit: got %d", c.AdminRateLimit)
	}

	// Relative script paths resolve against the config directory.
	if c.ScriptsDir != filepath.Join(dir, "lua") {
		t.Errorf("scripts_dir not resolved: %q", c.ScriptsDir)
	}
	if c.EventList != filepath.Join(dir, "lua", "scripts.xml") {
		t.Errorf("event_list not resolved: %q", c.EventList)
	}

	// Unset fields keep their defaults.
	if c.SQLQueryLimit != 100 {
		t.Errorf("sql_query_limit default lost: %d", c.SQLQueryLimit)
	}
}

func TestLoadConfErrors(t *testing.T) {
	if _, err := LoadConf(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("ship_name: [unclosed"), 0644)
	if _, err := LoadConf(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
