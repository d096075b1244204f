package integration

import (
	"strings"
	"testing"
)

func TestDiagnosticsRouteRequiresOptIn(t *testing.T) {
	disabled := startStack(t, newSiteFixture(t, "").configPath)
	resp := disabled.get(t, "http://docs.site.local/-/sites")
	if resp.status != 404 || resp.body != "<h1>missing</h1>" {
		t.Fatalf("expected /-/sites to resolve as an asset path, got %+v", resp)
	}

	enabled := startStack(t, newSiteFixture(t, "EnableDiagnostics = true").configPath)
	resp = enabled.get(t, "http://docs.site.local/-/sites")
	if resp.status != 200 {
		t.Fatalf("expected diagnostics payload, got %+v", resp)
	}
	for _, want := range []string{`"docs.site.local"`, `"shop.site.local"`, `"fallback_mode":"error_page"`, `"backend":"memory"`} {
		if !strings.Contains(resp.body, want) {
			t.Fatalf("diagnostics payload missing %s: %s", want, resp.body)
		}
	}
}
