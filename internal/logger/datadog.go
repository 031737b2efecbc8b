package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/rs/zerolog/diode"
)

const (
	defaultDataDogTimeout = 2 * time.Second
	dataDogSource         = "go"

	// dataDogBufferLen is the number of log lines held for the intake before lines are dropped.
	dataDogBufferLen = 1000
)

// logSubmitter is the part of the DataDog logs api used by DataDogWriter.
type logSubmitter interface {
	SubmitLog(
		ctx context.Context,
		body []datadogV2.HTTPLogItem,
		o ...datadogV2.SubmitLogOptionalParameters,
	) (interface{}, *http.Response, error)
}

// DataDogWriter ships every log line to the DataDog log intake.
// Each line is one HTTPLogItem; the zerolog JSON payload is kept as message.
// Write blocks on the intake; Init puts it behind a diode so logging never waits for it.
type DataDogWriter struct {
	api      logSubmitter
	ctx      context.Context //nolint:containedctx
	timeout  time.Duration
	service  string
	hostname string
	tags     string
	onError  func(error)
}

// NewDataDogWriter creates a writer for the configured DataDog site.
func NewDataDogWriter(cfg Log) (*DataDogWriter, error) {
	if cfg.DataDog.APIKey == "" {
		return nil, ErrDataDogAPIKeyIsEmpty
	}

	ctx := context.WithValue(
		context.Background(),
		datadog.ContextAPIKeys,
		map[string]datadog.APIKey{
			"apiKeyAuth": {Key: cfg.DataDog.APIKey},
		},
	)

	if cfg.DataDog.Site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{
			"site": cfg.DataDog.Site,
		})
	}

	client := datadog.NewAPIClient(datadog.NewConfiguration())

	return newDataDogWriter(datadogV2.NewLogsApi(client), ctx, cfg), nil
}

func newDataDogWriter(api logSubmitter, ctx context.Context, cfg Log) *DataDogWriter { //nolint:revive
	service := cfg.DataDog.ServiceName
	if service == "" {
		service = cfg.ServiceName
	}

	timeout := cfg.DataDog.Timeout
	if timeout <= 0 {
		timeout = defaultDataDogTimeout
	}

	hostname, _ := os.Hostname()

	return &DataDogWriter{
		api:      api,
		ctx:      ctx,
		timeout:  timeout,
		service:  service,
		hostname: hostname,
		tags:     cfg.DataDog.Tags,
		onError:  ErrorHandler,
	}
}

// Write implements io.Writer. A failed submit is also reported to the error handler,
// as the diode in front of the writer discards the returned error.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	item := datadogV2.HTTPLogItem{
		Message:  string(p),
		Ddsource: datadog.PtrString(dataDogSource),
		Service:  datadog.PtrString(w.service),
		Hostname: datadog.PtrString(w.hostname),
	}

	if w.tags != "" {
		item.Ddtags = datadog.PtrString(w.tags)
	}

	if _, _, err := w.api.SubmitLog(ctx, []datadogV2.HTTPLogItem{item}); err != nil {
		w.onError(err)
		return 0, err //nolint:wrapcheck
	}

	return len(p), nil
}

// dataDogSink puts w behind a non-blocking diode. Lines are dropped while the
// buffer is full; missed counts them.
func dataDogSink(w io.Writer, missed *atomic.Uint64) diode.Writer {
	return diode.NewWriter(w, dataDogBufferLen, 0, func(n int) {
		missed.Add(uint64(n)) //nolint:gosec
		_, _ = fmt.Fprintf(os.Stderr, "zerolog: datadog sink dropped %d log lines\n", n)
	})
}
