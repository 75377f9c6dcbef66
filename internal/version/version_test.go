package version

import (
	"strings"
	"testing"
)

func TestBanner(t *testing.T) {
	Version, Commit = "v1.2.3", "abc1234"
	got := Banner()
	for _, want := range []string{"weddingday v1.2.3", "commit=abc1234", "go=" + GoVersion} {
		if !strings.Contains(got, want) {
			t.Errorf("Banner() = %q, missing %q", got, want)
		}
	}
}
