package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const updateEvent = `{"id":"evt-2","eventType":"entityUpdated","entityType":"table","entityFullyQualifiedName":"shop.public.orders","userName":"alice","timestamp":1700000001000,"previousVersion":0.1,"currentVersion":0.2,"changeDescription":{"fieldsUpdated":[{"name":"description","oldValue":"old","newValue":"new"}]}}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(context.Background(), append([]string{"catalog-sentinel"}, args...))
	return buf.String(), err
}

func TestFormatJSON(t *testing.T) {
	path := writeFile(t, "event.json", updateEvent)

	out, err := runApp(t, "format", "--json", path)
	require.NoError(t, err)

	var notifications []models.Notification
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var n models.Notification
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &n))
		notifications = append(notifications, n)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, notifications, 1)

	n := notifications[0]
	assert.Equal(t, "evt-2", n.EventID)
	assert.Equal(t, models.EntityUpdated, n.EventType)
	assert.Equal(t, "alice", n.UserName)
	assert.Equal(t, "shop.public.orders", n.Entity.FullyQualifiedName)
	assert.Equal(t, "<#E::table::shop.public.orders::description>", n.Link.String())
	assert.Contains(t, n.Message, "Updated description")
}

func TestFormatConsole(t *testing.T) {
	path := writeFile(t, "event.json", updateEvent)

	out, err := runApp(t, "format", "--no-color", "--width", "60", path)
	require.NoError(t, err)
	assert.Contains(t, out, "evt-2")
	assert.Contains(t, out, "table shop.public.orders")
	assert.Contains(t, out, "Updated description")
}

func TestFormatErrors(t *testing.T) {
	_, err := runApp(t, "format")
	assert.ErrorContains(t, err, "missing event file")

	_, err = runApp(t, "format", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read event file")

	// an event without any identity cannot be linked
	path := writeFile(t, "event.json", `{"id":"evt-1","eventType":"entityCreated","entityType":"table"}`)
	_, err = runApp(t, "format", "--json", path)
	assert.Error(t, err)
}

func TestRunDeliversFileEvents(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(eventsPath, []byte(updateEvent+"\n"), 0o644))
	storeDir := filepath.Join(dir, "state")
	cfgPath := writeFile(t, "sentinel.toml", `
app_name = "catalog-cli"
log_level = "error"

[capturer]
type = "file"
[capturer.file]
path = "`+eventsPath+`"

[sink]
type = "debug"

[store]
type = "file"
path = "`+storeDir+`"
`)

	_, err := runApp(t, "run", "--config", cfgPath)
	require.NoError(t, err)

	st, err := store.NewFileStore(storeDir)
	require.NoError(t, err)
	value, err := st.Get(context.Background(), "catalog-cli/file")
	require.NoError(t, err)
	assert.Equal(t, "1", string(value))
}
