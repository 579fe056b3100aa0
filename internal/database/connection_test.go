package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"rds-user-initializer/internal/config"
	"rds-user-initializer/internal/scripts"
)

func sqliteSource(path string) ConfigSource {
	return func(ctx context.Context) (*ConnectionConfig, error) {
		return &ConnectionConfig{Driver: config.DriverSQLite, Database: path}, nil
	}
}

func TestSession_ConnectExecClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	session := NewSession(sqliteSource(dbPath), nil, testLogger())
	ctx := context.Background()

	if session.IsConnected() {
		t.Fatal("Session should not be connected initially")
	}

	if err := session.Connect(ctx); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	if !session.IsConnected() {
		t.Error("Session should be connected after Connect()")
	}

	if err := session.Connect(ctx); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("Expected ErrAlreadyConnected on second Connect(), got %v", err)
	}

	script := &scripts.Script{
		Name:    "000001_create_users",
		Version: 1,
		SQL: `CREATE TABLE users (name TEXT PRIMARY KEY);
INSERT INTO users (name) VALUES ('app_user');
INSERT INTO users (name) VALUES ('reporting');`,
	}

	result, err := session.Exec(ctx, script)
	if err != nil {
		t.Fatalf("Exec() failed: %v", err)
	}

	if result.Script != "000001_create_users" || result.Version != 1 {
		t.Errorf("Unexpected result identity: %+v", result)
	}

	data := result.Data()
	if data["Script"] != "000001_create_users" {
		t.Errorf("Expected Script in data, got %v", data)
	}
	if _, ok := data["RowsAffected"]; !ok {
		t.Errorf("Expected RowsAffected in data, got %v", data)
	}

	if err := session.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	if session.IsConnected() {
		t.Error("Session should not be connected after Close()")
	}

	if err := session.Close(); err != nil {
		t.Errorf("Second Close() should be a no-op, got %v", err)
	}

	if _, err := session.Exec(ctx, script); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected after Close(), got %v", err)
	}
}

func TestSession_CloseWithoutConnect(t *testing.T) {
	session := NewSession(sqliteSource(filepath.Join(t.TempDir(), "never.db")), nil, testLogger())

	if err := session.Close(); err != nil {
		t.Errorf("Close() on an unconnected session should be a no-op, got %v", err)
	}
}

func TestSession_ConnectFailures(t *testing.T) {
	sourceErr := errors.New("Failed to find secret with the specified id: ")

	tests := []struct {
		name      string
		source    ConfigSource
		wantErr   error
		wantExact string
	}{
		{
			name: "config source error is returned unchanged",
			source: func(ctx context.Context) (*ConnectionConfig, error) {
				return nil, sourceErr
			},
			wantErr:   sourceErr,
			wantExact: "Failed to find secret with the specified id: ",
		},
		{
			name: "open failure is a connection error",
			source: func(ctx context.Context) (*ConnectionConfig, error) {
				return &ConnectionConfig{Driver: "mysql"}, nil
			},
			wantErr: ErrConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession(tt.source, nil, testLogger())

			err := session.Connect(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantExact != "" && err.Error() != tt.wantExact {
				t.Errorf("Expected message %q, got %q", tt.wantExact, err.Error())
			}
			if session.IsConnected() {
				t.Error("Session should not be connected after a failed Connect()")
			}
			if err := session.Close(); err != nil {
				t.Errorf("Close() after failed Connect() should be a no-op, got %v", err)
			}
		})
	}
}

func TestSession_StatementFailure(t *testing.T) {
	session := NewSession(sqliteSource(filepath.Join(t.TempDir(), "bad.db")), nil, testLogger())
	ctx := context.Background()

	if err := session.Connect(ctx); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer session.Close()

	_, err := session.Exec(ctx, &scripts.Script{Name: "000001_broken", SQL: "CREATE USERS WITH NONSENSE"})
	if !IsStatement(err) {
		t.Fatalf("Expected a statement execution error, got %v", err)
	}

	var stmtErr *StatementExecutionError
	if !errors.As(err, &stmtErr) || stmtErr.Statement != "000001_broken" {
		t.Errorf("Expected statement name in error, got %v", err)
	}
}
