// Package store is the persistence gateway: gorm over a pure-Go sqlite
// driver. Each mutating operation is individually atomic; the pipeline
// performs no cross-operation transaction. The one cross-entity cascade is
// thread deletion, which removes both chat messages and thread-sourced
// events.
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chedhq/ched/logging"
)

// Store bundles the per-entity stores over one database handle.
type Store struct {
	db     *gorm.DB
	logger logging.Logger
}

// Open opens (creating if necessary) the sqlite database at path. A busy
// timeout is set so concurrent writers short-wait instead of failing.
func Open(path string, logger logging.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	return open(dsn, logger, 0)
}

// OpenInMemory opens a private in-memory database, used by tests. The
// connection pool is pinned to one connection so every query sees the same
// memory database.
func OpenInMemory(logger logging.Logger) (*Store, error) {
	return open(":memory:", logger, 1)
}

func open(dsn string, logger logging.Logger, maxConns int) (*Store, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if maxConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(maxConns)
	}
	return &Store{db: db, logger: logger}, nil
}

// AutoMigrate creates or migrates all tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&ScheduleEvent{},
		&ChatMessage{},
		&Course{},
		&Enrollment{},
		&TodoItem{},
	)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Events returns the schedule event store.
func (s *Store) Events() *EventStore { return &EventStore{db: s.db} }

// Chats returns the chat message store.
func (s *Store) Chats() *ChatStore { return &ChatStore{db: s.db} }

// Academic returns the course catalog / enrollment store.
func (s *Store) Academic() *AcademicStore { return &AcademicStore{db: s.db} }

// Todos returns the todo item store.
func (s *Store) Todos() *TodoStore { return &TodoStore{db: s.db} }

// SeedCourses inserts catalog rows that are not present yet. Existing rows
// are left untouched so reseeding is safe.
func (s *Store) SeedCourses(courses []Course) error {
	for _, c := range courses {
		var count int64
		if err := s.db.Model(&Course{}).Where("code = ?", c.Code).Count(&count).Error; err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := s.db.Create(&c).Error; err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}
	return nil
}

// SeedCoursesFromJSON loads a catalog file (a JSON array of courses) and
// seeds it. A missing path is a no-op so deployments without a catalog file
// still start.
func (s *Store) SeedCoursesFromJSON(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("catalog file missing, skipping seed", "path", path)
			return nil
		}
		return fmt.Errorf("read catalog: %w", err)
	}
	var courses []Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	return s.SeedCourses(courses)
}
