package vault

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

func newVault(t *testing.T) (*Vault, string, string) {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config", "credentials.enc")
	v, err := Open(path, key)
	require.NoError(t, err)
	return v, path, key
}

func TestParseKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	parsed, err := ParseKey("  " + key + "\n")
	require.NoError(t, err)
	assert.Len(t, parsed, keySize)

	_, err = ParseKey("")
	assert.ErrorIs(t, err, ErrNoKey)
	_, err = ParseKey("not base64!")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSaveAndGet(t *testing.T) {
	v, path, key := newVault(t)

	_, err := v.Get("amazon")
	require.ErrorIs(t, err, ErrNotFound)

	creds := schemas.Credentials{Username: "ops@shop.in", Password: "hunter2"}
	require.NoError(t, v.Save(" Amazon ", creds))
	require.NoError(t, v.Save("shopify", schemas.Credentials{Username: "s", Password: "p"}))

	got, err := v.Get("AMAZON")
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	names, err := v.Platforms()
	require.NoError(t, err)
	assert.Equal(t, []string{"amazon", "shopify"}, names)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("hunter2")), "store is encrypted")

	reopened, err := Open(path, key)
	require.NoError(t, err)
	got, err = reopened.Get("amazon")
	require.NoError(t, err)
	assert.Equal(t, creds, got)
}

func TestWrongKeyAndCorruption(t *testing.T) {
	v, path, _ := newVault(t)
	require.NoError(t, v.Save("myntra", schemas.Credentials{Username: "u", Password: "p"}))

	other, err := GenerateKey()
	require.NoError(t, err)
	wrong, err := Open(path, other)
	require.NoError(t, err)
	_, err = wrong.Get("myntra")
	assert.ErrorIs(t, err, ErrDecryption)

	require.NoError(t, os.WriteFile(path, []byte("tiny"), 0o600))
	_, err = v.Get("myntra")
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func promptFrom(t *testing.T, input string) (*Prompter, *bytes.Buffer) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	_, err = f.WriteString(input)
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	var out bytes.Buffer
	return NewPrompter(f, &out), &out
}

func TestEnsure(t *testing.T) {
	v, _, _ := newVault(t)

	p, out := promptFrom(t, "seller@shop.in\n s3cret \n")
	creds, err := Ensure(v, "flipkart", p)
	require.NoError(t, err)
	assert.Equal(t, schemas.Credentials{Username: "seller@shop.in", Password: "s3cret"}, creds)
	assert.Contains(t, out.String(), "flipkart username/email: ")
	assert.Contains(t, out.String(), "flipkart password: ")

	stored, err := v.Get("flipkart")
	require.NoError(t, err)
	assert.Equal(t, creds, stored)

	// Stored credentials are reused without prompting.
	p2, out2 := promptFrom(t, "")
	again, err := Ensure(v, "flipkart", p2)
	require.NoError(t, err)
	assert.Equal(t, creds, again)
	assert.Empty(t, out2.String())
}

func TestEnsure_RequiresBothFields(t *testing.T) {
	v, _, _ := newVault(t)
	p, _ := promptFrom(t, "only-user\n\n")
	_, err := Ensure(v, "shopify", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username and password are required")

	_, err = v.Get("shopify")
	assert.ErrorIs(t, err, ErrNotFound)
}
