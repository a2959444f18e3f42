package buildinfo

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v0.3.1"
	if got := UserAgent(); got != "meshmap/v0.3.1" {
		t.Errorf("UserAgent() = %q, want %q", got, "meshmap/v0.3.1")
	}
	if !strings.Contains(Template(), "v0.3.1") {
		t.Errorf("Template() = %q, missing version", Template())
	}
}
