package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/branch-tabs/cmd"
	logadapter "github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/notify"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/prompt"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/infrastructure/config"
)

// recordingLogger implements logadapter.Logger and keeps the last fields.
type recordingLogger struct {
	fields map[string]any
}

func (l *recordingLogger) Info(_ context.Context, _ string, f map[string]any)  { l.fields = f }
func (l *recordingLogger) Debug(_ context.Context, _ string, f map[string]any) { l.fields = f }
func (l *recordingLogger) Warn(_ context.Context, _ string, f map[string]any)  { l.fields = f }
func (l *recordingLogger) Error(_ context.Context, _ string, _ error, f map[string]any) {
	l.fields = f
}

type nopLogger struct{}

func (nopLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (nopLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (nopLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (nopLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

func TestNewPrompt(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    any
		wantErr bool
	}{
		{name: "terminal when unset", answer: "", want: &prompt.Terminal{}},
		{name: "fixed yes", answer: "yes", want: &prompt.Static{}},
		{name: "fixed none", answer: "none", want: &prompt.Static{}},
		{name: "invalid", answer: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newPrompt(tt.answer, nopLogger{})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestOpenKeyValueStore(t *testing.T) {
	ctx := context.Background()
	workspace := t.TempDir()

	for _, store := range []string{config.StoreSQLite, config.StoreFile} {
		t.Run(store, func(t *testing.T) {
			cfg := &config.Config{DataDir: filepath.Join(t.TempDir(), "data"), Store: store}

			kv, err := openKeyValueStore(ctx, cfg, workspace)
			require.NoError(t, err)
			t.Cleanup(func() { _ = kv.Close() })

			require.NoError(t, kv.Set(ctx, domain.BranchTabsKey, []byte(`{"main":[]}`)))
			got, ok, err := kv.Get(ctx, domain.BranchTabsKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"main":[]}`, string(got))
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		kv, err := openKeyValueStore(ctx, &config.Config{Store: "redis"}, workspace)
		require.Error(t, err)
		assert.Nil(t, kv)
		assert.ErrorIs(t, err, config.ErrInvalidStore)
	})
}

func TestScoped(t *testing.T) {
	rec := &recordingLogger{}
	log := scoped(logadapter.NewZapAdapter(rec), "/w")

	log.Info(context.Background(), "attached", map[string]interface{}{"root": "/w/one"})
	assert.Equal(t, map[string]any{"workspace": "/w", "root": "/w/one"}, rec.fields)

	// Other loggers are returned as is.
	other := nopLogger{}
	assert.Equal(t, cmd.Logger(other), scoped(other, "/w"))
}

func TestNewDependencies(t *testing.T) {
	rec := &recordingLogger{}
	calls := 0
	newLogger := func() *logadapter.ZapAdapter {
		calls++
		return logadapter.NewZapAdapter(rec)
	}
	var stderr bytes.Buffer

	deps := newDependencies(newLogger, io.Discard, &stderr)

	require.NotNil(t, deps.LoggerFactory)
	require.NotNil(t, deps.ConfigLoader)
	require.NotNil(t, deps.KeyValueStoreFactory)
	require.NotNil(t, deps.RepositoryFactory)
	require.NotNil(t, deps.RepositorySourceFactory)
	require.NotNil(t, deps.DiscoveryFactory)
	require.NotNil(t, deps.SettingsFactory)
	require.NotNil(t, deps.PromptFactory)
	require.NotNil(t, deps.OutputWriterFactory)
	assert.Equal(t, 0, calls, "logger must not be created before a command runs")

	log := deps.LoggerFactory()
	assert.Equal(t, 1, calls)

	cfg := &config.Config{DataDir: t.TempDir()}
	workspace := t.TempDir()

	tm := deps.TabManagerFactory(cfg, workspace, log)
	groups, err := tm.Groups(context.Background())
	require.NoError(t, err)
	assert.Empty(t, groups)

	st := deps.SettingsFactory(cfg, workspace, log)
	assert.True(t, st.Bool(domain.SettingBringTabsOnNoSavedAssociation, true))

	_, err = deps.RepositoryFactory(workspace, log)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)

	roots, err := deps.DiscoveryFactory(workspace, 1, log).Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestNewDependencies_Notifier(t *testing.T) {
	var stderr bytes.Buffer
	deps := newDependencies(func() *logadapter.ZapAdapter {
		return logadapter.NewZapAdapter(&recordingLogger{})
	}, io.Discard, &stderr)

	n := deps.NotifierFactory(&config.Config{}, &stderr, nopLogger{})
	require.IsType(t, notify.Multi{}, n)
	assert.Len(t, n.(notify.Multi), 1)

	n.Info(context.Background(), "Restored tabs")
	assert.Contains(t, stderr.String(), "Restored tabs")

	withDesktop := deps.NotifierFactory(&config.Config{DesktopNotify: true}, &stderr, nopLogger{})
	assert.Len(t, withDesktop.(notify.Multi), 2)
}
