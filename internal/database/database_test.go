package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestService spins up a fresh database in a temp dir with the full schema.
func newTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	require.NoError(t, svc.Init())
	return svc
}

// mustCreateUser inserts a minimal user and returns the stored record.
func mustCreateUser(t *testing.T, svc *Service, email, username string) *User {
	t.Helper()

	var user *User
	err := svc.Write(func(tx *sql.Tx) error {
		var txErr error
		user, txErr = svc.CreateUser(tx, &User{
			Email:        email,
			Username:     username,
			DateOfBirth:  "2000-01-01",
			PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$aGFzaA",
		})
		return txErr
	})
	require.NoError(t, err)
	return user
}

func TestForeignKeysEnforced(t *testing.T) {
	svc := newTestService(t)

	var enabled int
	require.NoError(t, svc.DB().QueryRow(`PRAGMA foreign_keys;`).Scan(&enabled))
	require.Equal(t, 1, enabled)

	// A membership row pointing at nonexistent users must be rejected.
	err := svc.Write(func(tx *sql.Tx) error {
		return svc.AddGroupMember(tx, "no-such-group", "no-such-user")
	})
	require.Error(t, err)
}

func TestWriteRollsBackOnError(t *testing.T) {
	svc := newTestService(t)
	user := mustCreateUser(t, svc, "a@x.com", "alice")

	err := svc.Write(func(tx *sql.Tx) error {
		if _, txErr := tx.Exec(`UPDATE users SET username = ? WHERE id = ?`, "changed", user.ID); txErr != nil {
			return txErr
		}
		return sql.ErrTxDone // force a rollback after the update ran
	})
	require.Error(t, err)

	reloaded, err := svc.GetUserByID(svc.DB(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", reloaded.Username)
}
