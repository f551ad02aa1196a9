package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"pg duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "idempotency_keys_pkey"`), "", true},
		{"pg named constraint", errors.New(`ERROR: duplicate key value violates unique constraint "idempotency_keys_pkey"`), "idempotency_keys_pkey", true},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: idempotency_keys.key"), "", true},
		{"unrelated", errors.New("connection refused"), "", false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSerializationFailure(t *testing.T) {
	t.Parallel()

	deadlock := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	if !IsSerializationFailure(fmt.Errorf("exec: %w", deadlock)) {
		t.Fatal("deadlock should be a serialization failure")
	}
	if !IsSerializationFailure(errors.New("database is locked")) {
		t.Fatal("sqlite busy should be a serialization failure")
	}
	if IsSerializationFailure(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation is not a serialization failure")
	}
	if IsSerializationFailure(errors.New("broken pipe")) {
		t.Fatal("unrelated errors are not serialization failures")
	}
}
