package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseLog() Log {
	return Log{
		LogLevel:    "info",
		ServiceName: "scouting-oidc",
		AppName:     "scouting-oidc",
	}
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(t *testing.T) Log
		wantErr error
		// emit writes log lines after Init; off for sinks that would leave the process
		emit  bool
		check func(t *testing.T, cfg Log, out string)
	}{
		{
			name: "unsupported log level",
			cfg: func(*testing.T) Log {
				c := baseLog()
				c.LogLevel = "loud"

				return c
			},
			wantErr: errAny,
		},
		{
			name: "service name missing",
			cfg: func(*testing.T) Log {
				c := baseLog()
				c.ServiceName = ""

				return c
			},
			wantErr: ErrServiceNameIsEmpty,
		},
		{
			name: "app name missing",
			cfg: func(*testing.T) Log {
				c := baseLog()
				c.AppName = ""

				return c
			},
			wantErr: ErrAppNameIsEmpty,
		},
		{
			name: "datadog enabled without api key",
			cfg: func(*testing.T) Log {
				c := baseLog()
				c.DataDog = DataDog{Enabled: true}

				return c
			},
			wantErr: ErrDataDogAPIKeyIsEmpty,
		},
		{
			name: "no sink enabled",
			cfg:  func(*testing.T) Log { return baseLog() },
			emit: true,
			check: func(t *testing.T, _ Log, out string) {
				t.Helper()
				assert.Empty(t, out)
				assert.Nil(t, dataDog)
			},
		},
		{
			name: "console json",
			cfg: func(*testing.T) Log {
				c := baseLog()
				c.Console.Enabled = true

				return c
			},
			emit: true,
			check: func(t *testing.T, _ Log, out string) {
				t.Helper()

				lines := strings.Split(strings.TrimSpace(out), "\n")
				require.Len(t, lines, 2, "trace is below the info level")

				var entry struct {
					Level   string `json:"level"`
					Message string `json:"message"`
					Error   string `json:"error"`
				}

				require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
				assert.Equal(t, "info", entry.Level)

				require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
				assert.Equal(t, "error", entry.Level)
				assert.Equal(t, "a test error", entry.Error)
			},
		},
		{
			name: "console writer at trace level",
			cfg: func(*testing.T) Log {
				c := baseLog()
				c.LogLevel = "trace"
				c.Console = Console{Enabled: true, UseConsoleWriter: true}

				return c
			},
			emit: true,
			check: func(t *testing.T, _ Log, out string) {
				t.Helper()
				assert.Contains(t, out, "info line")
				assert.Contains(t, out, "trace line")
				assert.False(t, json.Valid([]byte(strings.Split(out, "\n")[0])))
			},
		},
		{
			name: "rolling files split by level",
			cfg: func(t *testing.T) Log {
				t.Helper()

				c := baseLog()
				c.File = LogFile{
					Enabled:  true,
					Path:     filepath.Join(t.TempDir(), "log"),
					InfoLog:  "info.log",
					ErrorLog: "error.log",
					TraceLog: "trace.log",
					WarnLog:  "warn.log",
				}

				return c
			},
			emit: true,
			check: func(t *testing.T, cfg Log, _ string) {
				t.Helper()

				info, err := os.ReadFile(filepath.Join(cfg.File.Path, "info.log"))
				require.NoError(t, err)
				assert.Contains(t, string(info), "info line")
				assert.NotContains(t, string(info), "error line")

				errLog, err := os.ReadFile(filepath.Join(cfg.File.Path, "error.log"))
				require.NoError(t, err)
				assert.Contains(t, string(errLog), "error line")
			},
		},
		{
			name: "datadog enabled with api key",
			cfg: func(*testing.T) Log {
				c := baseLog()
				c.DataDog = DataDog{Enabled: true, APIKey: "test-key", Site: "datadoghq.eu"}

				return c
			},
			check: func(t *testing.T, _ Log, _ string) {
				t.Helper()
				require.NotNil(t, dataDog)
				assert.IsType(t, diode.Writer{}, dataDog)

				require.NoError(t, Close())
				assert.Nil(t, dataDog)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreGlobals(t)

			cfg := tt.cfg(t)
			out, err := captureInit(t, cfg, tt.emit)

			switch {
			case tt.wantErr == errAny:
				require.Error(t, err)
				return
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, zerolog.ErrorHandler, "Init installs the write error handler")

			if tt.check != nil {
				tt.check(t, cfg, out)
			}
		})
	}
}

func TestInitReplacesDataDogSink(t *testing.T) {
	restoreGlobals(t)

	cfg := baseLog()
	cfg.DataDog = DataDog{Enabled: true, APIKey: "test-key"}

	require.NoError(t, Init(cfg))
	require.NotNil(t, dataDog)

	require.NoError(t, Init(baseLog()))
	assert.Nil(t, dataDog)
}

func TestPrometheusHookCountsLevels(t *testing.T) {
	restoreGlobals(t)

	require.NoError(t, Init(baseLog()))

	before := warnCount(t)

	log.Warn().Msg("counted")
	log.Warn().Msg("counted")

	assert.InDelta(t, before+2, warnCount(t), 0)
}

func warnCount(t *testing.T) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != "log_statements_total" {
			continue
		}

		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "level" && l.GetValue() == "warn" {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}

func TestLevelWriter(t *testing.T) {
	var info, errOut, trace, warn bytes.Buffer

	lw := &LevelWriter{InfoWriter: &info, ErrorWriter: &errOut, TraceWriter: &trace, WarnWriter: &warn}

	for _, l := range []zerolog.Level{
		zerolog.TraceLevel, zerolog.DebugLevel, zerolog.InfoLevel,
		zerolog.WarnLevel, zerolog.ErrorLevel, zerolog.Disabled,
	} {
		_, err := lw.WriteLevel(l, []byte(l.String()+";"))
		require.NoError(t, err)
	}

	assert.Equal(t, "trace;", trace.String())
	assert.Equal(t, "debug;info;", info.String())
	assert.Equal(t, "warn;", warn.String())
	assert.Equal(t, "error;", errOut.String())
}

// errAny marks a case expecting some error.
var errAny = errors.New("any error") //nolint:gochecknoglobals

// restoreGlobals resets what Init changes once the test is done.
func restoreGlobals(t *testing.T) {
	t.Helper()

	logger := log.Logger
	level := zerolog.GlobalLevel()
	handler := zerolog.ErrorHandler

	zerolog.ErrorHandler = nil //nolint:reassign

	t.Cleanup(func() {
		_ = Close()

		log.Logger = logger
		zerolog.SetGlobalLevel(level)
		zerolog.ErrorHandler = handler //nolint:reassign
	})
}

// captureInit runs Init with stdout and stderr redirected and returns what was printed.
func captureInit(t *testing.T, cfg Log, emit bool) (string, error) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	outC := make(chan string)

	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer

		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	initErr := Init(cfg)
	if initErr == nil && emit {
		log.Info().Msg("info line")
		log.Error().Err(errors.New("a test error")).Msg("error line") //nolint:goerr113
		log.Trace().Msg("trace line")
	}

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr

	return <-outC, initErr
}
