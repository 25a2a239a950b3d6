package documents

import (
	"testing"

	"admissions-backend/internal/shared/config"
)

func TestPolicyFromConfigOverrides(t *testing.T) {
	p := PolicyFromConfig(map[string]config.PolicyOverride{
		"photo":    {MaxBytes: 1 << 20},
		"essay":    {MaxBytes: 1},
		"identity": {MIMETypes: []string{"application/pdf", " "}},
	})
	if p[TypePhoto].MaxBytes != 1<<20 {
		t.Fatalf("expected photo override, got %d", p[TypePhoto].MaxBytes)
	}
	if len(p[TypeIdentity].AllowedMIME) != 1 || p[TypeIdentity].AllowedMIME[0] != "application/pdf" {
		t.Fatalf("unexpected identity mime list %v", p[TypeIdentity].AllowedMIME)
	}
	if p[TypeTranscript].MaxBytes != 5<<20 {
		t.Fatalf("expected transcript default untouched")
	}
	if !p[TypeTranscript].Required || p[TypeCertificate].Required {
		t.Fatalf("required flags changed")
	}
}

func TestDefaultPolicyIsIndependent(t *testing.T) {
	a := DefaultPolicy()
	tp := a[TypePhoto]
	tp.MaxBytes = 1
	a[TypePhoto] = tp
	if DefaultPolicy()[TypePhoto].MaxBytes == 1 {
		t.Fatalf("DefaultPolicy returned shared state")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeInline, "inline": ModeInline, "DOWNLOAD": ModeDownload, "attachment": ModeDownload}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("stream"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
