package mercadolivre

import "testing"

const searchPageFixture = `
<html><body>
<ol class="ui-search-layout">
  <li><a href="https://carro.mercadolivre.com.br/MLB123456-honda-civic?tracking=abc">Honda Civic</a></li>
  <li><a href="https://carro.mercadolivre.com.br/MLB789012-fiat-pulse">Fiat Pulse</a></li>
  <li><a href="https://carro.mercadolivre.com.br/MLB123456-honda-civic">Honda Civic again</a></li>
  <li><a href="https://www.mercadolivre.com.br/ajuda">Ajuda</a></li>
</ol>
<a rel="next" href="https://carros.mercadolivre.com.br/sp/_Desde_49">Seguinte</a>
</body></html>`

func TestParseSearchPage(t *testing.T) {
	urls, next := ParseSearchPage(searchPageFixture)

	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2 (deduplicated, non-listing links dropped): %v", len(urls), urls)
	}
	if urls[0] != "https://carro.mercadolivre.com.br/MLB123456-honda-civic" {
		t.Errorf("first url = %q, query string should be stripped", urls[0])
	}
	if next != "https://carros.mercadolivre.com.br/sp/_Desde_49" {
		t.Errorf("next = %q, want the rel=next href", next)
	}
}

func TestParseSearchPageLastPage(t *testing.T) {
	_, next := ParseSearchPage(`<a href="/MLB1-car">one</a>`)
	if next != "" {
		t.Errorf("next = %q, want empty on the last page", next)
	}
}

func TestExtractExternalID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://carro.mercadolivre.com.br/MLB123456-honda-civic", "MLB123456"},
		{"https://www.mercadolivre.com.br/ajuda", ""},
	}
	for _, tt := range tests {
		if got := ExtractExternalID(tt.url); got != tt.want {
			t.Errorf("ExtractExternalID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

const jsonLDFixture = `
<html><head>
<script type="application/ld+json">
{
  "@type": "Car",
  "name": "Honda Civic EX 2019",
  "brand": {"name": "Honda"},
  "model": "Civic",
  "productionDate": "2019",
  "image": ["https://http2.mlstatic.com/D_1.jpg", "https://http2.mlstatic.com/D_2.jpg"],
  "mileageFromOdometer": {"value": 45000},
  "offers": {"price": 95000},
  "itemLocation": {"addressLocality": "Campinas", "addressRegion": "SP"},
  "url": "https://carro.mercadolivre.com.br/MLB123456-honda-civic"
}
</script>
</head><body></body></html>`

func TestParseListingPageJSONLD(t *testing.T) {
	parsed := ParseListingPage(jsonLDFixture, "https://carro.mercadolivre.com.br/MLB123456")

	if parsed.Title != "Honda Civic EX 2019" {
		t.Errorf("title = %q", parsed.Title)
	}
	if parsed.Brand != "Honda" || parsed.Model != "Civic" {
		t.Errorf("brand/model = %q/%q, want Honda/Civic", parsed.Brand, parsed.Model)
	}
	if parsed.Price == nil || *parsed.Price != 95000 {
		t.Errorf("price = %v, want 95000", parsed.Price)
	}
	if parsed.Year == nil || *parsed.Year != 2019 {
		t.Errorf("year = %v, want 2019", parsed.Year)
	}
	if parsed.MileageKM == nil || *parsed.MileageKM != 45000 {
		t.Errorf("mileage = %v, want 45000", parsed.MileageKM)
	}
	if parsed.City != "Campinas" || parsed.State != "SP" {
		t.Errorf("location = %q/%q, want Campinas/SP", parsed.City, parsed.State)
	}
	if len(parsed.Photos) != 2 {
		t.Errorf("photos = %v, want 2 entries", parsed.Photos)
	}
	if parsed.ExternalID != "MLB123456" {
		t.Errorf("external id = %q, want MLB123456", parsed.ExternalID)
	}
}

const markupFixture = `
<html><head>
<link rel="canonical" href="https://carro.mercadolivre.com.br/MLB987654-vw-t-cross"/>
</head><body>
<h1 class="ui-pdp-title">Volkswagen T-Cross Highline</h1>
<span class="andes-money-amount__fraction">132.900</span>
<ol class="ui-pdp-breadcrumb">
  <li><a>Carros e Caminhonetes</a></li>
  <li><a>Sorocaba, SP</a></li>
</ol>
<table>
  <tr class="ui-vpp-striped-specs__table-row"><th>Quilometragem</th><td>28.000 km</td></tr>
  <tr class="ui-vpp-striped-specs__table-row"><th>Ano</th><td>2021</td></tr>
  <tr class="ui-vpp-striped-specs__table-row"><th>Versão</th><td>Highline</td></tr>
</table>
<img src="https://http2.mlstatic.com/D_9.jpg"/>
<section class="ui-seller-info" data-seller-id="123987">
  <span>MercadoLíder gold</span>
  <span>1.500 vendas</span>
  <span>Responde em 1,5 h</span>
  <span>30 cancelamentos</span>
  <span>98% de avaliações positivas</span>
</section>
</body></html>`

func TestParseListingPageMarkupFallback(t *testing.T) {
	parsed := ParseListingPage(markupFixture, "https://carro.mercadolivre.com.br/MLB987654")

	if parsed.Title != "Volkswagen T-Cross Highline" {
		t.Errorf("title = %q", parsed.Title)
	}
	if parsed.Price == nil || *parsed.Price != 132900 {
		t.Errorf("price = %v, want 132900", parsed.Price)
	}
	if parsed.MileageKM == nil || *parsed.MileageKM != 28000 {
		t.Errorf("mileage = %v, want 28000", parsed.MileageKM)
	}
	if parsed.Year == nil || *parsed.Year != 2021 {
		t.Errorf("year = %v, want 2021", parsed.Year)
	}
	if parsed.Trim != "Highline" {
		t.Errorf("trim = %q, want Highline", parsed.Trim)
	}
	if parsed.City != "Sorocaba" || parsed.State != "SP" {
		t.Errorf("location = %q/%q, want Sorocaba/SP", parsed.City, parsed.State)
	}
	// Title heuristic fills brand and model when no JSON-LD exists.
	if parsed.Brand != "Volkswagen" || parsed.Model != "T-Cross Highline" {
		t.Errorf("brand/model = %q/%q", parsed.Brand, parsed.Model)
	}
	if parsed.URL != "https://carro.mercadolivre.com.br/MLB987654-vw-t-cross" {
		t.Errorf("url = %q, want the canonical link", parsed.URL)
	}
	if parsed.ExternalID != "MLB987654" {
		t.Errorf("external id = %q, want MLB987654", parsed.ExternalID)
	}
	if parsed.SellerType != "dealer" {
		t.Errorf("seller type = %q, want dealer when a seller block exists", parsed.SellerType)
	}
}

func TestExtractSellerFeedback(t *testing.T) {
	feedback := ExtractSellerFeedback(markupFixture)
	if feedback == nil {
		t.Fatal("expected seller feedback")
	}
	if feedback.ExternalID != "123987" {
		t.Errorf("seller id = %q, want 123987", feedback.ExternalID)
	}
	if feedback.Medal == nil || *feedback.Medal != "gold" {
		t.Errorf("medal = %v, want gold", feedback.Medal)
	}
	if feedback.CompletedSales == nil || *feedback.CompletedSales != 1500 {
		t.Errorf("completed sales = %v, want 1500", feedback.CompletedSales)
	}
	if feedback.ResponseTimeHours == nil || *feedback.ResponseTimeHours != 1.5 {
		t.Errorf("response time = %v, want 1.5", feedback.ResponseTimeHours)
	}
	if feedback.Cancellations == nil || *feedback.Cancellations != 30 {
		t.Errorf("cancellations = %v, want 30", feedback.Cancellations)
	}
	if feedback.Score == nil || *feedback.Score != 0.98 {
		t.Errorf("score = %v, want 0.98", feedback.Score)
	}
}

func TestExtractSellerFeedbackAbsent(t *testing.T) {
	if fb := ExtractSellerFeedback("<html><body>no seller here</body></html>"); fb != nil {
		t.Errorf("feedback = %+v, want nil without a seller section", fb)
	}
}
