package skill

import (
	"errors"
	"testing"
)

func TestResolveDirectHit(t *testing.T) {
	r := NewRegistry()
	for _, category := range []string{"ecommerce", "saas", "leadgen"} {
		res, err := r.Resolve(category)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", category, err)
		}
		if res.UsingFallback {
			t.Errorf("direct hit for %s flagged as fallback", category)
		}
		if res.Bundle.Category != category {
			t.Errorf("bundle category = %s, want %s", res.Bundle.Category, category)
		}
		if res.Bundle.Version == "" {
			t.Errorf("bundle %s has no version", category)
		}
	}
}

func TestResolveFallback(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		category string
		wantTo   string
	}{
		{"retail", "ecommerce"},
		{"marketplace", "ecommerce"},
		{"subscription", "saas"},
		{"local_services", "leadgen"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			res, err := r.Resolve(tt.category)
			if err != nil {
				t.Fatal(err)
			}
			if !res.UsingFallback || res.FallbackFrom != tt.category {
				t.Errorf("fallback metadata wrong: %+v", res)
			}
			if res.Bundle.Category != tt.wantTo {
				t.Errorf("fallback target = %s, want %s", res.Bundle.Category, tt.wantTo)
			}
			if res.Warning == "" {
				t.Error("fallback resolution must carry a warning")
			}
		})
	}
}

func TestResolveUnknownCategory(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("space_tourism")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
}

func TestRegisterOverride(t *testing.T) {
	r := NewRegistry()
	custom := &Bundle{Category: "ecommerce", Version: "9.9.9"}
	r.Register(custom)

	res, err := r.Resolve("ecommerce")
	if err != nil {
		t.Fatal(err)
	}
	if res.Bundle.Version != "9.9.9" {
		t.Errorf("override not applied, version = %s", res.Bundle.Version)
	}
}

func TestBuiltinBundlesCarryExclusions(t *testing.T) {
	r := NewRegistry()

	saas, _ := r.Resolve("saas")
	found := false
	for _, e := range saas.Bundle.Exclusions {
		if e == "schema:Product" {
			found = true
		}
	}
	if !found {
		t.Error("saas bundle should exclude Product schema recommendations")
	}

	leadgen, _ := r.Resolve("leadgen")
	found = false
	for _, e := range leadgen.Bundle.Exclusions {
		if e == "metric:roas" {
			found = true
		}
	}
	if !found {
		t.Error("leadgen bundle should exclude roas-based recommendations")
	}
}
