package logger

import (
	"strings"
	"testing"
)

func TestSanitizeRedactsSecrets(t *testing.T) {
	l := &Logger{redact: true, salt: "s"}
	out := l.sanitize([]interface{}{"jwt_token", "abc", "email", "ada@example.com", "name", "Ada"})
	if out[1] != "[REDACTED]" || out[3] != "[REDACTED]" {
		t.Fatalf("expected secrets redacted, got %v", out)
	}
	if out[5] != "Ada" {
		t.Fatalf("expected plain value kept, got %v", out[5])
	}
}

func TestSanitizeHashesMatricNumbers(t *testing.T) {
	l := &Logger{redact: true, salt: "s"}
	out := l.sanitize([]interface{}{"matric_number", "CSC/2020/001"})
	got, _ := out[1].(string)
	if !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("expected hashed value, got %q", got)
	}
}

func TestSanitizeTruncatesDataURLs(t *testing.T) {
	l := &Logger{}
	payload := "data:image/png;base64," + strings.Repeat("A", 500)
	out := l.sanitize([]interface{}{"artifact", payload})
	got, _ := out[1].(string)
	if got != "data:image/png;base64,<500 bytes>" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestSanitizeOddKeyCount(t *testing.T) {
	l := &Logger{redact: true}
	out := l.sanitize([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output %v", out)
	}
}
