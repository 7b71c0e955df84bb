package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/suiteworks/suiteql-workbench/internal/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.AutoMigrate(&models.Account{}, &models.Config{}, &models.QueryHistory{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func createAccount(t *testing.T, database *gorm.DB, id string) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:                id,
		NetSuiteAccountID: "1234567",
		ClientID:          "client",
		ClientSecret:      "secret",
		RedirectURI:       "http://localhost:3000/callback",
	}
	if err := database.Create(account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func TestDeleteAccount_RemovesDerivedState(t *testing.T) {
	database := newTestDB(t)
	createAccount(t, database, "acc-1")

	RecordQuery(database, "acc-1", "SELECT id FROM transaction", 3, nil)
	if err := SetCurrentAccount(database, "acc-1"); err != nil {
		t.Fatalf("select account: %v", err)
	}

	if err := DeleteAccount(database, "acc-1"); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	if _, err := GetAccount(database, "acc-1"); err == nil {
		t.Fatal("expected account to be gone")
	}
	var historyCount int64
	database.Model(&models.QueryHistory{}).Where("account_id = ?", "acc-1").Count(&historyCount)
	if historyCount != 0 {
		t.Fatalf("expected history to be deleted, found %d rows", historyCount)
	}
	if got := GetConfigValue(database, CurrentAccountKey); got != "" {
		t.Fatalf("expected selection to be cleared, got %q", got)
	}
}

func TestCurrentAccount_FallsBackWithoutSelection(t *testing.T) {
	database := newTestDB(t)
	createAccount(t, database, "acc-1")

	account, err := CurrentAccount(database)
	if err != nil {
		t.Fatalf("current account: %v", err)
	}
	if account.ID != "acc-1" {
		t.Fatalf("expected fallback to acc-1, got %s", account.ID)
	}
}

func TestSetCurrentAccount_UnknownID(t *testing.T) {
	database := newTestDB(t)
	if err := SetCurrentAccount(database, "missing"); err == nil {
		t.Fatal("expected error selecting unknown account")
	}
}

func TestRecordQuery_ErrorStatus(t *testing.T) {
	database := newTestDB(t)
	createAccount(t, database, "acc-1")

	RecordQuery(database, "acc-1", "SELECT bogus", 0, errTest("boom"))

	entries, err := HistoryForAccount(database, "acc-1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].Status != "error" || entries[0].Error != "boom" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if time.Since(entries[0].ExecutedAt) > time.Minute {
		t.Fatalf("unexpected ExecutedAt: %v", entries[0].ExecutedAt)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
