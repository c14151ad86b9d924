package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func TestLogger_Log(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"key": "value"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "error occurred",
			err:     errors.New("test error"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(LevelInfo, &buf)

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > 0
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelDebug, &buf)
	logger.now = fixedClock

	logger.Error("delivery failed", Fields{"sink": "discord"}, errors.New("status 500"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v (line %q)", err, buf.String())
	}

	if entry.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("Timestamp = %q", entry.Timestamp)
	}
	if entry.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", entry.Level)
	}
	if entry.Fields["sink"] != "discord" {
		t.Errorf("Fields[sink] = %v, want discord", entry.Fields["sink"])
	}
	if entry.Error != "status 500" {
		t.Errorf("Error = %q, want status 500", entry.Error)
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	parent := New(LevelInfo, &buf)
	child := parent.With(Fields{"run_id": "abc"})

	child.Info("checking", Fields{"source": "dawum"})
	parent.Info("plain", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var first, second LogEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}

	if first.Fields["run_id"] != "abc" || first.Fields["source"] != "dawum" {
		t.Errorf("child fields = %v, want run_id and source", first.Fields)
	}
	if _, ok := second.Fields["run_id"]; ok {
		t.Errorf("parent logger picked up child fields: %v", second.Fields)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" WARN ", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.minLevel, &buf)

			logger.log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	original := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(original)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("wrote %d lines, want 4", got)
	}
}
