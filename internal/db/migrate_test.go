package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCardColumns(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, column := range []string{"owner_user_id", "status", "balance_credits", "total_credits", "expires_at"} {
		if !conn.Migrator().HasColumn("mess_cards", column) {
			t.Fatalf("mess_cards missing column %s", column)
		}
	}
}

func TestMigrateSQLiteLedgerLinkColumns(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	if !conn.Migrator().HasColumn("ledger_entries", "recharge_id") {
		t.Fatalf("ledger_entries missing recharge back-reference column")
	}
	if !conn.Migrator().HasColumn("recharges", "ledger_entry_id") {
		t.Fatalf("recharges missing ledger entry reference column")
	}
}

func TestDetectDialectFromDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@localhost:5432/mess", DialectPostgres},
		{"host=localhost user=mess dbname=mess sslmode=disable", DialectPostgres},
		{"file:data/mess.db", DialectSQLite},
		{":memory:", DialectSQLite},
		{"sqlite://data/mess.db", DialectSQLite},
	}
	for _, tc := range cases {
		got, errDetect := detectDialectFromDSN(tc.dsn)
		if errDetect != nil {
			t.Fatalf("detect %q: %v", tc.dsn, errDetect)
		}
		if got != tc.want {
			t.Fatalf("detect %q: got %s want %s", tc.dsn, got, tc.want)
		}
	}
}
