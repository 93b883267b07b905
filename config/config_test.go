package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	c := Default()
	if c.Shards != 1 || c.DataDir == "" || !c.Scripting {
		t.Fatalf("defaults wrong: %+v", c)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	body := "data_dir = \"/tmp/nivalis\"\nshards = 4\nlog_level = \"debug\"\nscripting = false\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.DataDir != "/tmp/nivalis" || c.Shards != 4 || c.LogLevel != "debug" || c.Scripting {
		t.Fatalf("loaded config wrong: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Shards = 0
	if err := c.Validate(); err == nil {
		t.Fatal("zero shards must fail")
	}
	c = Default()
	c.DataDir = ""
	if err := c.Validate(); err == nil {
		t.Fatal("empty data dir must fail")
	}
}
