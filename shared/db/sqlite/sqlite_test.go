package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/dfryer1193/artblog/shared/db"
)

func TestNewSQLiteDB(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "explicit path",
			path: "/tmp/test.db",
			want: "/tmp/test.db",
		},
		{
			name: "default path",
			want: DefaultPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := NewSQLiteDB(&SQLiteConfig{Path: tt.path})
			if database.dbPath != tt.want {
				t.Errorf("dbPath = %v, want %v", database.dbPath, tt.want)
			}
		})
	}
}

func TestSQLiteDB_Connect(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})

	err := database.Connect()
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	if database.DB() == nil {
		t.Error("DB() returned nil after Connect()")
	}

	err = database.Connect()
	if err == nil {
		t.Error("Connect() should return error when already connected")
	}

	var mode string
	if err := database.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestSQLiteDB_Close(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})

	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if database.DB() != nil {
		t.Error("DB() should return nil after Close()")
	}
}

func TestSQLiteDB_InterfaceCompliance(t *testing.T) {
	var _ db.Database = (*SQLiteDB)(nil)
}
