package integration

import (
	"strings"
	"testing"
)

func TestHostRoutingDistinguishesDomainsOnSinglePort(t *testing.T) {
	fixture := newSiteFixture(t, "")
	app := startStack(t, fixture.configPath)

	docs := app.get(t, "http://docs.site.local/index.html")
	shop := app.get(t, "http://shop.site.local/index.html")
	if docs.body != "<h1>docs</h1>" || shop.body != "<div id=shop></div>" {
		t.Fatalf("sites not separated: docs=%q shop=%q", docs.body, shop.body)
	}
	if docs.header["ETag"] == shop.header["ETag"] {
		t.Fatalf("expected per-site fingerprints")
	}
	if app.cache.Len() != 2 {
		t.Fatalf("expected host to be part of the cache key, got %d entries", app.cache.Len())
	}

	unknown := app.get(t, "http://other.site.local/index.html")
	if unknown.status != 404 || !strings.Contains(unknown.body, "host_unmapped") {
		t.Fatalf("unexpected unknown host response: %+v", unknown)
	}
	if unknown.header["X-Request-ID"] == "" {
		t.Fatalf("expected request id on unmapped host response")
	}
}
