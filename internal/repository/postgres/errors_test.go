package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsPgDuplicateError(t *testing.T) {
	if IsPgDuplicateError(&pgconn.PgError{Code: "23505"}) != true {
		t.Error("IsPgDuplicateError() = false for code 23505, want true")
	}
	if IsPgDuplicateError(&pgconn.PgError{Code: "23503"}) != false {
		t.Error("IsPgDuplicateError() = true for code 23503, want false")
	}
	if IsPgDuplicateError(errors.New("unrelated")) != false {
		t.Error("IsPgDuplicateError() = true for non-pg error, want false")
	}
}

func TestIsPgNoRowsError(t *testing.T) {
	if !IsPgNoRowsError(pgx.ErrNoRows) {
		t.Error("IsPgNoRowsError(pgx.ErrNoRows) = false, want true")
	}
	if IsPgNoRowsError(errors.New("other")) {
		t.Error("IsPgNoRowsError() = true for unrelated error, want false")
	}
	wrapped := errors.Join(errors.New("context"), pgx.ErrNoRows)
	if !IsPgNoRowsError(wrapped) {
		t.Error("IsPgNoRowsError() = false for wrapped pgx.ErrNoRows, want true")
	}
}

func TestIsPgForeignKeyError(t *testing.T) {
	if !IsPgForeignKeyError(&pgconn.PgError{Code: "23503"}) {
		t.Error("IsPgForeignKeyError() = false for code 23503, want true")
	}
	if IsPgForeignKeyError(&pgconn.PgError{Code: "23505"}) {
		t.Error("IsPgForeignKeyError() = true for code 23505, want false")
	}
}
