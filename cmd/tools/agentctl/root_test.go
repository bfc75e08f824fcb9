package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/agentdesk/backend/internal/model/meeting"
	"github.com/zhouzirui/agentdesk/backend/internal/service/worker"
)

// run executes one agentctl invocation against a scratch database without a model.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"Model", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "REDIS_URL"} {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMeetingsLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "meetings.db")

	out, err := run(t, db, "meetings", "list")
	require.NoError(t, err)
	assert.Equal(t, "No meetings found.\n", out)

	out, err = run(t, db, "meetings", "add", "--title", "Budget review", "--start", "2025-01-10 09:30", "--format", "json")
	require.NoError(t, err)
	var created []meeting.Meeting
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Len(t, created, 1)
	assert.Equal(t, "Budget review", created[0].Title)

	_, err = run(t, db, "meetings", "add", "--title", "Standup", "--start", "2025-01-11 10:00", "--description", "daily sync")
	require.NoError(t, err)

	out, err = run(t, db, "meetings", "count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, db, "meetings", "search", "sync", "--format", "yaml")
	require.NoError(t, err)
	var found []meeting.Meeting
	require.NoError(t, yaml.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Standup", found[0].Title)

	out, err = run(t, db, "meetings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Budget review at 2025-01-10 09:30")
	assert.Contains(t, out, "   Description: daily sync")

	_, err = run(t, db, "meetings", "delete", "1")
	require.NoError(t, err)
	_, err = run(t, db, "meetings", "delete", "1")
	assert.ErrorIs(t, err, meeting.ErrNotFound)
}

func TestMeetingsRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "m.db"), "meetings", "count", "--format", "xml")
	assert.Error(t, err)
}

func TestMeetingsAddRequiresFlags(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "m.db"), "meetings", "add", "--title", "No start")
	assert.Error(t, err)
}

func TestIngestReportsChunks(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "handbook.md")
	require.NoError(t, os.WriteFile(doc, []byte("Employees get 25 vacation days.\n\nRemote work is allowed on Fridays."), 0o644))

	out, err := run(t, filepath.Join(dir, "m.db"), "ingest", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "handbook.md:")
	assert.Contains(t, out, "1 chunks")
}

func TestIngestRejectsUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(doc, []byte("a,b"), 0o644))

	_, err := run(t, filepath.Join(dir, "m.db"), "ingest", doc)
	assert.Error(t, err)
}

func TestAskWithoutModelFallsBackToDatabaseWorker(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "m.db"), "ask", "--route", "list", "all", "meetings")
	require.NoError(t, err)
	assert.Contains(t, out, "[DB_QUERY -> "+worker.NameDatabase+"]")
	assert.Contains(t, out, worker.DBUnavailable)
}
