package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/hoarder-capture/internal/logging"
)

func TestStdoutLogger_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewWriterLogger(&buf, "capture", logging.LevelDebug)

	l.Info("saved page", logging.F("page_id", 42))

	var entry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component"`
		Fields    map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if entry.Level != "info" || entry.Msg != "saved page" || entry.Component != "capture" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["page_id"] != float64(42) {
		t.Errorf("expected page_id 42, got %v", entry.Fields["page_id"])
	}
}

func TestStdoutLogger_DropsBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewWriterLogger(&buf, "", logging.LevelWarn)

	l.Debug("noise")
	l.Info("noise")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}

	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn entry, got %q", buf.String())
	}
}

func TestStdoutLogger_WithCarriesFieldsAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewWriterLogger(&buf, "root", logging.LevelDebug)

	child := l.With(logging.F("component", "popup"), logging.F("run_id", "abc"))
	child.Error("boom", logging.Err(errors.New("bad")))

	out := buf.String()
	for _, want := range []string{`"component":"popup"`, `"run_id":"abc"`, `"error":"bad"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestZerologLogger_EmitsFields(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewZerologLogger(&buf, "collection", logging.LevelInfo)

	l.Debug("hidden")
	l.With(logging.F("endpoint", "http://x")).Info("posting", logging.F("bytes", 10))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry should be filtered: %s", out)
	}
	for _, want := range []string{`"component":"collection"`, `"endpoint":"http://x"`, `"bytes":10`, `"message":"posting"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"WARN":    logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
		"":        logging.LevelInfo,
		"verbose": logging.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
