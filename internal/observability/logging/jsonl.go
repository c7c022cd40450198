package logging

import (
	"context"
	"encoding/json"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/pipetriage/pipetriage/internal/observability"
	"github.com/pipetriage/pipetriage/internal/version"
	"go.opentelemetry.io/otel/trace"
)

const SchemaVersion = "1.0"

// EventPrefix namespaces every event name
const EventPrefix = "pipetriage."

type jsonlLogger struct {
	writer    io.Writer
	closer    io.Closer
	minLevel  int
	component string
	mu        sync.Mutex
}

type logEntry struct {
	Timestamp         string         `json:"ts"`
	Level             string         `json:"level"`
	Event             string         `json:"event,omitempty"`
	Component         string         `json:"component"`
	OpID              string         `json:"op_id"`
	TraceID           string         `json:"trace_id,omitempty"`
	SpanID            string         `json:"span_id,omitempty"`
	SchemaVersion     string         `json:"schema_version"`
	PipetriageVersion string         `json:"pipetriage_version,omitempty"`
	GoVersion         string         `json:"go_version,omitempty"`
	Message           string         `json:"msg,omitempty"`
	Fields            map[string]any `json:"fields,omitempty"`
}

func newEntry(level, component string) logEntry {
	return logEntry{
		Timestamp:         time.Now().UTC().Format(time.RFC3339Nano),
		Level:             level,
		Component:         component,
		SchemaVersion:     SchemaVersion,
		PipetriageVersion: version.BuildVersion(),
		GoVersion:         runtime.Version(),
	}
}

func (j *jsonlLogger) log(level, component, msg string, fields ...any) {
	if levelPriority(level) < j.minLevel {
		return
	}

	entry := newEntry(level, component)
	entry.Message = msg

	if len(fields) > 0 {
		entry.Fields = make(map[string]any)
		for i := 0; i+1 < len(fields); i += 2 {
			if key, ok := fields[i].(string); ok {
				entry.Fields[key] = fields[i+1]
			}
		}
	}

	j.writeEntry(entry)
}

// Event writes at info level with op and trace ids taken from ctx
func (j *jsonlLogger) Event(ctx context.Context, event string, fields map[string]any) {
	if levelPriority(LevelInfo) < j.minLevel {
		return
	}

	entry := newEntry(LevelInfo, j.component)
	entry.Event = EventPrefix + event
	entry.OpID = observability.OpID(ctx)
	entry.Fields = fields

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
		entry.SpanID = sc.SpanID().String()
	}

	j.writeEntry(entry)
}

func (j *jsonlLogger) writeEntry(entry logEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return // silently skip malformed entries
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	_, _ = j.writer.Write(data) // best effort
}

func (j *jsonlLogger) Debug(component, msg string, fields ...any) {
	j.log(LevelDebug, component, msg, fields...)
}

func (j *jsonlLogger) Info(component, msg string, fields ...any) {
	j.log(LevelInfo, component, msg, fields...)
}

func (j *jsonlLogger) Warn(component, msg string, fields ...any) {
	j.log(LevelWarn, component, msg, fields...)
}

func (j *jsonlLogger) Error(component, msg string, fields ...any) {
	j.log(LevelError, component, msg, fields...)
}

func (j *jsonlLogger) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
