// The textdb package serves the game's localized string table, extracted
// from the client data files into a local SQLite database. It backs the
// extended message decoder's MessageLookup.
package textdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MessageString is one localized template, keyed by (category, instance).
type MessageString struct {
	Category uint32 `gorm:"primaryKey;autoIncrement:false"`
	Instance uint32 `gorm:"primaryKey;autoIncrement:false"`
	Message  string
}

// TextDB is a read-mostly handle over the string table. Lookups are memoized
// since a busy channel resolves the same handful of templates constantly.
type TextDB struct {
	db   *gorm.DB
	memo *gocache.Cache
}

// Open opens (creating if necessary) the string table database at path.
func Open(path string, debug bool) (*TextDB, error) {
	log := logger.Default.LogMode(logger.Error)
	if debug {
		log = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("error opening text database: %s", err)
	}
	if err := db.AutoMigrate(&MessageString{}); err != nil {
		return nil, fmt.Errorf("error auto migrating text database: %s", err)
	}

	return &TextDB{
		db:   db,
		memo: gocache.New(time.Hour, 10*time.Minute),
	}, nil
}

// GetMessageString implements extmsg.MessageLookup.
func (t *TextDB) GetMessageString(category, instance uint32) (string, bool) {
	key := fmt.Sprintf("%d:%d", category, instance)
	if v, ok := t.memo.Get(key); ok {
		return v.(string), true
	}

	var row MessageString
	err := t.db.Where("category = ? AND instance = ?", category, instance).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		// Failed reads are indistinguishable from missing entries to the
		// decoder; it degrades to an empty fragment either way.
		return "", false
	}

	t.memo.Set(key, row.Message, 0)
	return row.Message, true
}

// Put inserts or replaces one template. Used by import tooling and tests.
func (t *TextDB) Put(category, instance uint32, message string) error {
	row := MessageString{Category: category, Instance: instance, Message: message}
	if err := t.db.Save(&row).Error; err != nil {
		return fmt.Errorf("error writing message string: %s", err)
	}
	t.memo.Delete(fmt.Sprintf("%d:%d", category, instance))
	return nil
}

// Close releases the underlying database handle.
func (t *TextDB) Close() error {
	database, err := t.db.DB()
	if err != nil {
		return fmt.Errorf("error while getting current connection: %w", err)
	}
	return database.Close()
}
