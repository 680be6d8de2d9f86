package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	Logf("client connected from %s", "127.0.0.1")

	if len(lines) != 1 || lines[0] != "client connected from %s" {
		t.Errorf("lines = %v, want one captured line", lines)
	}
}

func TestSetLoggerNilMutes(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	captured := false
	SetLogger(func(string, ...interface{}) { captured = true })
	SetLogger(nil)
	Logf("dropped")

	if captured {
		t.Error("muted logger still reached the previous sink")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must never be nil")
	}
}
