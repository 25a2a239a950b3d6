package blob

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBuildKeyLayout(t *testing.T) {
	at := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	key := BuildKey("app-42", "personal_statement", at, "pdf")

	prefix := "documents/app-42/app-42_personal_statement_1772618400000_"
	if !strings.HasPrefix(key, prefix) {
		t.Fatalf("unexpected key %q", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("expected .pdf suffix, got %q", key)
	}
}

func TestBuildKeyIsUniqueWithinSameInstant(t *testing.T) {
	at := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key := BuildKey("app-1", "photo", at, ".png")
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
	}
}

func TestBuildKeySanitizesOwner(t *testing.T) {
	key := BuildKey("../evil", "photo", time.Now(), ".png")
	if strings.Contains(key, "..") {
		t.Fatalf("key must not contain traversal: %q", key)
	}
	if _, err := CleanKey(key); err != nil {
		t.Fatalf("built key should be clean: %v", err)
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "documents/a/b.pdf", want: "documents/a/b.pdf"},
		{key: "documents//a/./b.pdf", want: "documents/a/b.pdf"},
		{key: "/etc/passwd", wantErr: true},
		{key: "../outside", wantErr: true},
		{key: "documents/../../outside", wantErr: true},
		{key: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.key)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("CleanKey(%q) expected ErrInvalidKey, got %q, %v", tt.key, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", tt.key, got, err, tt.want)
		}
	}
}
