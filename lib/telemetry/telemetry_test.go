package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetupDisabled(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupFromMissingConfigFile(t *testing.T) {
	tel, err := SetupFromConfigFile(
		context.Background(),
		"test:telemetry",
		filepath.Join(t.TempDir(), "telemetry.json5"),
	)
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
}

func TestSetupFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.json5")
	err := os.WriteFile(path, []byte(`{
		// exporters connect lazily, nothing needs to listen here
		otlp: {
			traces: { http_endpoint: "http://127.0.0.1:4318/v1/traces" },
		},
	}`), 0600)
	require.NoError(t, err)

	tel, err := SetupFromConfigFile(context.Background(), "test:telemetry", path)
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tel.Shutdown(ctx)
}

func TestInstrumentPerfStatsStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	InstrumentPerfStats(ctx, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	cancel()
}
