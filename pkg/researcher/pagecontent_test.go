package researcher

import (
	"reflect"
	"sort"
	"testing"

	"github.com/iWorld-y/growth_radar/pkg/skill"
)

const productPage = `<!DOCTYPE html>
<html>
<head>
<title>Trail Boots | Acme Outdoor</title>
<meta name="description" content="Waterproof trail boots for every terrain.">
<link rel="canonical" href="https://shop.example/products/trail-boots">
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "Product", "name": "Trail Boots", "offers": {"@type": "Offer", "price": "129"}},
    {"@type": "BreadcrumbList"}
  ]
}
</script>
<script type="application/ld+json">
not even json
</script>
</head>
<body>
<h1>Trail Boots</h1>
<div class="product-review-list">Great boots</div>
<button class="btn add-to-cart">Buy</button>
<p>Rugged waterproof boots built for long trails and wet weather hiking.</p>
</body>
</html>`

func fullExtract() skill.ExtractToggles {
	return skill.ExtractToggles{Title: true, H1: true, MetaDescription: true, Canonical: true, WordCount: true}
}

func TestParsePageExtraction(t *testing.T) {
	cfg := &skill.EnrichmentConfig{Extract: fullExtract()}
	content, err := parsePage([]byte(productPage), "https://shop.example/products/trail-boots", cfg)
	if err != nil {
		t.Fatal(err)
	}

	if content.Title != "Trail Boots | Acme Outdoor" {
		t.Errorf("title = %q", content.Title)
	}
	if content.H1 != "Trail Boots" {
		t.Errorf("h1 = %q", content.H1)
	}
	if content.MetaDescription != "Waterproof trail boots for every terrain." {
		t.Errorf("meta description = %q", content.MetaDescription)
	}
	if content.Canonical != "https://shop.example/products/trail-boots" {
		t.Errorf("canonical = %q", content.Canonical)
	}
}

func TestCollectSchemaTypesNestedGraph(t *testing.T) {
	cfg := &skill.EnrichmentConfig{}
	content, err := parsePage([]byte(productPage), "https://shop.example/products/trail-boots", cfg)
	if err != nil {
		t.Fatal(err)
	}

	got := append([]string(nil), content.SchemaTypes...)
	sort.Strings(got)
	want := []string{"BreadcrumbList", "Offer", "Product"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("schema types = %v, want %v", got, want)
	}
}

func TestSchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		rules []skill.SchemaRule
		want  int
	}{
		{
			name:  "missing expected type flagged",
			types: []string{"Article"},
			rules: []skill.SchemaRule{{Type: "Product", Mode: "flag_if_missing"}},
			want:  1,
		},
		{
			name:  "disallowed type present flagged",
			types: []string{"Product"},
			rules: []skill.SchemaRule{{Type: "Product", Mode: "flag_if_present"}},
			want:  1,
		},
		{
			name:  "clean page",
			types: []string{"Product"},
			rules: []skill.SchemaRule{{Type: "Product", Mode: "flag_if_missing"}},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schemaViolations(tt.types, tt.rules)
			if len(got) != tt.want {
				t.Errorf("violations = %v, want %d", got, tt.want)
			}
		})
	}
}

func TestDetectSignals(t *testing.T) {
	cfg := &skill.EnrichmentConfig{
		Signals: []skill.SignalRule{
			{Name: "has_reviews_widget", Tag: "div", Attr: "class", Contains: "review"},
			{Name: "has_add_to_cart", Tag: "button", Attr: "class", Contains: "cart"},
			{Name: "has_video", Tag: "iframe", Attr: "src", Contains: "youtube"},
		},
	}
	content, err := parsePage([]byte(productPage), "https://shop.example/products/trail-boots", cfg)
	if err != nil {
		t.Fatal(err)
	}

	if !content.Signals["has_reviews_widget"] {
		t.Error("expected reviews widget signal")
	}
	if !content.Signals["has_add_to_cart"] {
		t.Error("expected add-to-cart signal")
	}
	if content.Signals["has_video"] {
		t.Error("video signal should be absent")
	}
}

func TestClassifyURL(t *testing.T) {
	cfg := &skill.EnrichmentConfig{
		PageTypes: []skill.PageTypeRule{
			{Pattern: `/product[s]?/|/p/`, Type: "product", Confidence: 0.9},
			{Pattern: `/blog/`, Type: "editorial", Confidence: 0.8},
			{Pattern: `/weak/`, Type: "weak", Confidence: 0.5},
		},
		PageTypeThreshold: 0.7,
		DefaultPageType:   "other",
	}

	tests := []struct {
		url  string
		want string
	}{
		{"https://shop.example/products/trail-boots", "product"},
		{"https://shop.example/blog/gear-guide", "editorial"},
		{"https://shop.example/weak/page", "other"}, // 置信度未达标
		{"https://shop.example/about", "other"},
	}
	for _, tt := range tests {
		if got := classifyURL(tt.url, cfg); got != tt.want {
			t.Errorf("classifyURL(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}
