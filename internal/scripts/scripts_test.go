package scripts

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoad_EmbeddedScript(t *testing.T) {
	script, err := Load("000001_create_db_user")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if script.Version != 1 {
		t.Errorf("Expected version 1, got %d", script.Version)
	}

	if !strings.Contains(script.SQL, "CREATE ROLE app_user") {
		t.Errorf("Expected script to create the application role, got:\n%s", script.SQL)
	}
}

func TestList(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(names) == 0 || names[0] != "000001_create_db_user" {
		t.Errorf("Expected 000001_create_db_user first, got %v", names)
	}
}

func TestLoadFrom(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_seed.up.sql":  {Data: []byte("  INSERT INTO t VALUES (1);\n")},
		"000003_blank.up.sql": {Data: []byte("\n\n")},
	}

	tests := []struct {
		name    string
		script  string
		wantErr bool
		wantSQL string
	}{
		{name: "trims whitespace", script: "000002_seed", wantSQL: "INSERT INTO t VALUES (1);"},
		{name: "missing file", script: "000009_missing", wantErr: true},
		{name: "empty script", script: "000003_blank", wantErr: true},
		{name: "no version prefix", script: "seed", wantErr: true},
		{name: "non numeric prefix", script: "abc_seed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := LoadFrom(fsys, tt.script)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFrom() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && script.SQL != tt.wantSQL {
				t.Errorf("Expected SQL %q, got %q", tt.wantSQL, script.SQL)
			}
		})
	}
}
