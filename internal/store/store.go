package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/pavelanni/smartstudy/internal/model"
)

// Storage backends accepted by New.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store gives typed access to every portal collection.
type Store struct {
	users        Collection[model.User]
	sessions     Collection[model.AuthSession]
	classes      Collection[model.Class]
	enrollments  Collection[model.Enrollment]
	assignments  Collection[model.Assignment]
	practiceSets Collection[model.PracticeSet]
	profiles     Collection[model.Profile]

	db *sql.DB
}

// New opens a store under dataDir. With BackendJSON every collection is a
// JSON array file; with BackendSQLite all collections live in smartstudy.db
// (dataDir ":memory:" opens an in-memory database).
func New(backend, dataDir string) (*Store, error) {
	switch backend {
	case "", BackendJSON:
		return &Store{
			users:        NewFileCollection[model.User](filepath.Join(dataDir, "users.json")),
			sessions:     NewFileCollection[model.AuthSession](filepath.Join(dataDir, "sessions.json")),
			classes:      NewFileCollection[model.Class](filepath.Join(dataDir, "classes.json")),
			enrollments:  NewFileCollection[model.Enrollment](filepath.Join(dataDir, "enrollments.json")),
			assignments:  NewFileCollection[model.Assignment](filepath.Join(dataDir, "assignments.json")),
			practiceSets: NewFileCollection[model.PracticeSet](filepath.Join(dataDir, "practice_sets.json")),
			profiles:     NewFileCollection[model.Profile](filepath.Join(dataDir, "profiles.json")),
		}, nil
	case BackendSQLite:
		dbPath := dataDir
		if dataDir != ":memory:" {
			dbPath = filepath.Join(dataDir, "smartstudy.db")
		}
		db, err := openSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return &Store{
			users:        NewSQLiteCollection[model.User](db, "users"),
			sessions:     NewSQLiteCollection[model.AuthSession](db, "sessions"),
			classes:      NewSQLiteCollection[model.Class](db, "classes"),
			enrollments:  NewSQLiteCollection[model.Enrollment](db, "enrollments"),
			assignments:  NewSQLiteCollection[model.Assignment](db, "assignments"),
			practiceSets: NewSQLiteCollection[model.PracticeSet](db, "practice_sets"),
			profiles:     NewSQLiteCollection[model.Profile](db, "profiles"),
			db:           db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
