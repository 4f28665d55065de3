package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/fixture"
	"github.com/noah-isme/timetable-api/internal/models"
)

func copyFixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../fixture/testdata/department.yaml")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "department.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateTextPreview(t *testing.T) {
	path := copyFixture(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out, err := run(t, "generate", "--fixture", path, "-d", "cse", "-y", "III", "-s", "A")
	require.NoError(t, err)

	assert.Contains(t, out, "cse / III / A")
	assert.Contains(t, out, "Counselling (Dr. Dinesh)")
	assert.Contains(t, out, "stages: EMPTY > SPECIALS_LOCKED")
	assert.NotContains(t, out, "saved as")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "preview never rewrites the fixture")
}

func TestGenerateSaveWritesFixture(t *testing.T) {
	path := copyFixture(t)

	out, err := run(t, "generate", "--fixture", path, "-d", "cse", "-y", "III", "-s", "A", "--save", "--format", "json")
	require.NoError(t, err)

	var result generateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Saved)
	assert.Equal(t, "A", result.Saved.Section)
	assert.True(t, result.Proposal.Conflicts.Valid)

	store, err := fixture.Load(path)
	require.NoError(t, err)
	stored, err := store.Timetables().Find(context.Background(), "cse", "III", "A")
	require.NoError(t, err)
	assert.Equal(t, result.Proposal.Grid, stored.Grid)

	out, err = run(t, "validate", "--fixture", path, "-d", "cse", "-y", "III", "-s", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "faculty conflicts: ok")
	assert.Contains(t, out, "lab placement: ok")

	out, err = run(t, "export", "--fixture", path, "-d", "cse", "-y", "III", "-s", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "Day,P1,P2,P3,P4,P5,P6,P7")
}

func TestGenerateOpenElectiveQuotaOverride(t *testing.T) {
	path := copyFixture(t)

	out, err := run(t, "generate", "--fixture", path, "-d", "cse", "-y", "III", "-s", "B", "-f", "json", "--open-elective-quota", "0")
	require.NoError(t, err)

	var result generateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Zero(t, result.Proposal.Grid.Count(models.OpenElectiveLabel))
}

func TestValidateMissingTimetable(t *testing.T) {
	path := copyFixture(t)

	_, err := run(t, "validate", "--fixture", path, "-d", "cse", "-y", "III", "-s", "C")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timetable not found")
}

func TestCommandArgumentErrors(t *testing.T) {
	_, err := run(t, "generate", "-d", "cse", "-y", "III", "-s", "A")
	assert.EqualError(t, err, "--fixture is required")

	path := copyFixture(t)
	_, err = run(t, "generate", "--fixture", path, "-d", "cse", "-y", "III", "-s", "A", "-f", "yaml")
	assert.EqualError(t, err, `unsupported format "yaml"`)

	_, err = run(t, "generate", "--fixture", path, "-d", "cse")
	assert.Error(t, err)
}
