package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestDBDialectNameDefaultsToSQLite(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}

	dsn := fmt.Sprintf("file:dialect_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if got := dbDialectName(db); got != "sqlite" {
		t.Fatalf("sqlite dialect want sqlite got %s", got)
	}
}

func TestLockForUpdateNoopOnSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:dialect_lock_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}

	locked := lockForUpdate(db)
	if locked != db {
		t.Fatalf("expected sqlite lockForUpdate to return the same session")
	}
}
