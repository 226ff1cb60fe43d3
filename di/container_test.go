package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/strahe/catalog-sentinel/capture"
	"github.com/strahe/catalog-sentinel/config"
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/processor"
	"github.com/strahe/catalog-sentinel/sentinel"
	"github.com/strahe/catalog-sentinel/sink"
	"github.com/strahe/catalog-sentinel/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const events = `{"id":"evt-1","eventType":"entityCreated","entityType":"table","entityFullyQualifiedName":"shop.public.orders","timestamp":1700000000000}
{"id":"evt-2","eventType":"entityUpdated","entityType":"table","entityFullyQualifiedName":"shop.public.orders","timestamp":1700000001000,"previousVersion":0.1,"currentVersion":0.2,"changeDescription":{"fieldsUpdated":[{"name":"description","oldValue":"old","newValue":"new"}]}}
`

func writeConfig(t *testing.T) (string, string) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(eventsPath, []byte(events), 0o644))

	storeDir := filepath.Join(dir, "state")
	cfgPath := filepath.Join(dir, "sentinel.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
app_name = "catalog-test"
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

[sentinel]
batch_size = 10
flush_interval = "50ms"
`), 0o644))
	return cfgPath, storeDir
}

func TestSetupContainer(t *testing.T) {
	cfgPath, storeDir := writeConfig(t)
	injector := SetupContainer(cfgPath)

	cfg := do.MustInvoke[*config.Config](injector)
	assert.Equal(t, "catalog-test", cfg.AppName)

	c := do.MustInvoke[capture.Capturer](injector)
	assert.IsType(t, &capture.FileCapturer{}, c)
	assert.IsType(t, &sink.DebugSink{}, do.MustInvoke[sink.Sink](injector))
	assert.IsType(t, &store.FileStore{}, do.MustInvoke[store.Store](injector))

	s := do.MustInvoke[*sentinel.Sentinel](injector)
	assert.Equal(t, 10, s.BatchSize)
	assert.Equal(t, 50*time.Millisecond, s.FlushInterval)

	require.NoError(t, s.Start(context.Background()))
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("sentinel did not finish")
	}
	require.NoError(t, s.Stop())

	stats := s.Stats()
	assert.EqualValues(t, 2, stats.EventsReceived)
	assert.EqualValues(t, 2, stats.NotificationsWritten)
	assert.Equal(t, "2", stats.Checkpoint)

	st, err := store.NewFileStore(storeDir)
	require.NoError(t, err)
	value, err := st.Get(context.Background(), "catalog-test/file")
	require.NoError(t, err)
	assert.Equal(t, "2", string(value))
}

func TestNewProcessor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Processor.Filter.EntityTypes = []string{"table"}
	cfg.Processor.ExcludeFields = []string{"tags"}
	injector := SetupContainerWithConfig(cfg)

	p := do.MustInvoke[processor.Processor](injector)
	chain, ok := p.(*processor.ProcessorChain)
	require.True(t, ok)

	out, err := chain.Process(&models.ChangeEvent{ID: "evt-1", EventType: models.EntityCreated, EntityType: "dashboard"})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSetupContainerErrors(t *testing.T) {
	_, err := do.Invoke[*config.Config](SetupContainer(filepath.Join(t.TempDir(), "missing.toml")))
	assert.Error(t, err)

	cfg := config.DefaultConfig()
	cfg.LogLevel = "loud"
	_, err = do.Invoke[*sentinel.Sentinel](SetupContainerWithConfig(cfg))
	assert.ErrorContains(t, err, "invalid log level")

	cfg = config.DefaultConfig()
	cfg.Sink.Type = "slack"
	_, err = do.Invoke[sink.Sink](SetupContainerWithConfig(cfg))
	assert.ErrorContains(t, err, "unsupported sink type")
}

func TestSinkConfig(t *testing.T) {
	m := SinkConfig(config.SinkConfig{Color: true, MaxColumnWidth: 80})
	assert.Equal(t, true, m["color"])
	assert.Equal(t, 80, m["max_column_width"])
	assert.Equal(t, false, m["pretty_print"])
}
