package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmatch/campusmatch/internal/config"
	"github.com/campusmatch/campusmatch/internal/registration"
	"github.com/campusmatch/campusmatch/pkg/state"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, db, device string) {
	t.Helper()
	ctx := context.Background()
	store, err := state.OpenSQLite(ctx, db)
	require.NoError(t, err)
	answers := state.NewAnswerStore(store)
	require.NoError(t, answers.Save(ctx, device, registration.KeyRegistration,
		map[string]any{"fullName": "Ada", "email": "ada@example.com"}))
	require.NoError(t, answers.Save(ctx, device, registration.KeyAcademicInfo,
		map[string]any{"highSchool": "Lincoln High"}))
	require.NoError(t, store.Close())
}

func TestConfigInitAndShow(t *testing.T) {
	isolate(t)

	out, err := run(t, "config", "init", "--project")
	require.NoError(t, err)
	assert.Contains(t, out, config.ProjectPath())

	_, err = run(t, "config", "init", "--project")
	assert.Error(t, err, "existing file without --force")

	_, err = run(t, "config", "init", "--project", "--force")
	require.NoError(t, err)

	out, err = run(t, "config", "show", "--store", "sqlite", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: sqlite")
	assert.Contains(t, out, "level: debug")
}

func TestConfigShow_Invalid(t *testing.T) {
	isolate(t)
	_, err := run(t, "config", "show", "--store", "redis")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestAnswers(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "answers.db")
	const device = "dev-1"
	seed(t, db, device)
	store := []string{"--store", "sqlite", "--db", db}

	out, err := run(t, append([]string{"answers", "devices"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, device)

	out, err = run(t, append([]string{"answers", "show", "--device", device}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "registrationData:")
	assert.Contains(t, out, "fullName: Ada")
	assert.Contains(t, out, "highSchool: Lincoln High")

	out, err = run(t, append([]string{"answers", "show", "--device", device, "--key", registration.KeyAcademicInfo}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "highSchool")
	assert.NotContains(t, out, "fullName")

	_, err = run(t, append([]string{"answers", "show"}, store...)...)
	assert.Error(t, err, "device is required")

	out, err = run(t, append([]string{"answers", "clear", "--device", device, "--key", registration.KeyAcademicInfo}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared "+registration.KeyAcademicInfo)

	out, err = run(t, append([]string{"answers", "clear", "--device", device}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 saved screens")

	out, err = run(t, append([]string{"answers", "show", "--device", device}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "No saved answers")
}

func TestMigrate(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "data", "campusmatch.db")

	out, err := run(t, "migrate", "--db", db, "--purge")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version")
	assert.Contains(t, out, "Purged 0 expired rows")

	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestRegister_UnknownFlow(t *testing.T) {
	isolate(t)
	_, err := run(t, "register", "--flow", "nope")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "campusmatch dev\n", out)
}
