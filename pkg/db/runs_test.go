package db

import (
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// every pooled connection would otherwise get its own empty database
	database.SetMaxOpenConns(1)

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestInsertRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	savings := 82.5
	tests := []struct {
		name    string
		run     Run
		wantErr bool
	}{
		{
			name: "extracted run",
			run: Run{RunID: "r1", LibraryID: "/better-auth/better-auth", Input: "better-auth", Topic: "sessions",
				Mode: "code", Page: 1, Outcome: "extracted", Sections: []string{"Code Examples", "Important Notes"},
				RawTokens: 400, FilteredTokens: 70, SavingsPercent: &savings, Duration: 1500 * time.Millisecond},
		},
		{
			name: "same library reuses row",
			run:  Run{RunID: "r2", LibraryID: "/better-auth/better-auth", Input: "/better-auth/better-auth", Mode: "info", Page: 2, Outcome: "fallback"},
		},
		{
			name: "unresolved run has no library",
			run:  Run{RunID: "r3", Input: "nosuchlib", Mode: "code", Page: 1, Outcome: "unresolved"},
		},
		{
			name:    "duplicate run id",
			run:     Run{RunID: "r1", Input: "x", Mode: "code", Page: 1, Outcome: "extracted"},
			wantErr: true,
		},
		{
			name:    "empty run id",
			run:     Run{Input: "x", Mode: "code", Page: 1, Outcome: "extracted"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.InsertRun(tt.run)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertRun() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	var libraries int
	if err := db.QueryRow("SELECT COUNT(*) FROM libraries").Scan(&libraries); err != nil {
		t.Fatal(err)
	}
	if libraries != 1 {
		t.Errorf("libraries = %d, want 1", libraries)
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	savings := 50.0
	runs := []Run{
		{RunID: "a", LibraryID: "/org/one", Input: "one", Mode: "code", Page: 1, Outcome: "extracted",
			Sections: []string{"Code Examples"}, RawTokens: 20, FilteredTokens: 10, SavingsPercent: &savings, Duration: 2 * time.Second},
		{RunID: "b", Input: "two", Mode: "info", Page: 1, Outcome: "unresolved"},
		{RunID: "c", LibraryID: "/org/three", Input: "three", Mode: "code", Page: 3, Outcome: "fallback"},
	}
	for _, r := range runs {
		if err := db.InsertRun(r); err != nil {
			t.Fatalf("InsertRun(%s) error = %v", r.RunID, err)
		}
	}

	got, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(got) != 2 || got[0].RunID != "c" || got[1].RunID != "b" {
		t.Fatalf("ListRuns(2) = %+v, want runs c then b", got)
	}
	if got[1].LibraryID != "" || got[1].SavingsPercent != nil {
		t.Errorf("unresolved run = %+v, want no library and no savings", got[1])
	}

	all, err := db.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	first := all[len(all)-1]
	if first.LibraryID != "/org/one" || first.SavingsPercent == nil || *first.SavingsPercent != 50 {
		t.Errorf("run a = %+v", first)
	}
	if len(first.Sections) != 1 || first.Sections[0] != "Code Examples" {
		t.Errorf("sections = %v", first.Sections)
	}
	if first.Duration != 2*time.Second {
		t.Errorf("duration = %v, want 2s", first.Duration)
	}

	counts, err := db.OutcomeCounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 3 {
		t.Errorf("OutcomeCounts() = %+v, want 3 outcomes", counts)
	}
}

func TestOpen_CompletesPartialSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	raw, err := openDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(`CREATE TABLE libraries (
    library_ref INTEGER PRIMARY KEY AUTOINCREMENT,
    library_id TEXT NOT NULL UNIQUE,
    first_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	missing, err := db.missingTables()
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 0 {
		t.Errorf("missing tables after Open() = %v", missing)
	}
	if err := db.InsertRun(Run{RunID: "r1", LibraryID: "/a/b", Input: "b", Mode: "code", Outcome: "extracted"}); err != nil {
		t.Errorf("InsertRun() after Open() error = %v", err)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestMissingTables(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if missing, err := db.missingTables(); err != nil || len(missing) != 0 {
		t.Fatalf("missingTables() = %v, %v on full schema", missing, err)
	}
	if _, err := db.Exec("DROP TABLE runs"); err != nil {
		t.Fatal(err)
	}
	missing, err := db.missingTables()
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0] != "runs" {
		t.Errorf("missingTables() = %v, want [runs]", missing)
	}
	if err := db.ensureSchemaExists(); err != nil {
		t.Fatalf("ensureSchemaExists() error = %v", err)
	}
	if missing, _ := db.missingTables(); len(missing) != 0 {
		t.Errorf("missingTables() after ensure = %v", missing)
	}
}
