package olx

import (
	"strings"
	"testing"

	"github.com/alexmarroig/Carpremiumsell/connectors"
)

func TestBuildSearchURLPagination(t *testing.T) {
	c := &Connector{opts: connectors.Options{RegionKey: "sp", QueryText: "honda civic"}}

	first := c.buildSearchURL(1)
	want := "https://www.olx.com.br/autos-e-pecas/carros-vans-e-utilitarios/estado-sp?q=honda+civic"
	if first != want {
		t.Errorf("first page = %q, want %q", first, want)
	}

	// With a query string present the page param must join with &.
	third := c.buildSearchURL(3)
	if !strings.HasSuffix(third, "&page=3") {
		t.Errorf("page 3 url = %q, want &page=3 suffix", third)
	}

	// Without a query string it opens its own.
	c.opts.QueryText = ""
	second := c.buildSearchURL(2)
	if !strings.HasSuffix(second, "estado-sp?page=2") {
		t.Errorf("page 2 url without query = %q, want ?page=2 suffix", second)
	}
}
