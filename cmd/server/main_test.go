package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { bnsReverse = false })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestBNSCommand(t *testing.T) {
	out, err := execute(t, "", "bns", "420")
	require.NoError(t, err)
	assert.Equal(t, "Cheating (IPC 420) -> BNS 318\n", out)

	out, err = execute(t, "", "bns", "--reverse", "101")
	require.NoError(t, err)
	assert.Equal(t, "Murder (BNS 101) -> IPC 302\n", out)

	_, err = execute(t, "", "bns", "9999")
	assert.Error(t, err)
}

func TestHashKeyCommand(t *testing.T) {
	out, err := execute(t, "", "hash-key", "open-sesame")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("open-sesame")))

	out, err = execute(t, "from-stdin\n", "hash-key")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))

	_, err = execute(t, "", "hash-key")
	assert.Error(t, err)
}

func TestBackupCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("DATABASE_PATH", dir+"/chamber.db")
	t.Setenv("BACKUP_PATH", dir+"/backup.csv")
	t.Setenv("LOG_LEVEL", "error")

	out, err := execute(t, "", "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 0 cases to "+dir+"/backup.csv")
}
