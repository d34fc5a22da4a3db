package schema

import (
	"reflect"
	"testing"
)

func TestDocument(t *testing.T) {
	doc := NewDocument()
	doc.Add("id", "p-1")
	doc.Add("address_line_1", "1 Main St")
	doc.Add("address_line_1", "Unit 4")

	city := "Lyon"
	doc.AddOptional("address_city", &city)
	doc.AddOptional("address_zip_code", nil)

	if doc.Len() != 3 {
		t.Errorf("Len() = %d, want 3", doc.Len())
	}
	if got := doc.FieldNames(); !reflect.DeepEqual(got, []string{"address_city", "address_line_1", "id"}) {
		t.Errorf("FieldNames() = %v", got)
	}
	if got := doc.Get("address_line_1"); !reflect.DeepEqual(got, []string{"1 Main St", "Unit 4"}) {
		t.Errorf("Get(address_line_1) = %v", got)
	}
	if v, ok := doc.First("address_city"); !ok || v != "Lyon" {
		t.Errorf("First(address_city) = %q, %v", v, ok)
	}
	if _, ok := doc.First("address_zip_code"); ok {
		t.Error("nil optional value should not be added")
	}
	if doc.SizeBytes() <= 0 {
		t.Error("SizeBytes() should be positive")
	}
}

func TestNormalizeFacet(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"sex/female", "/sex/female"},
		{"/sex/female", "/sex/female"},
		{"", "/"},
	}
	for _, tt := range tests {
		if got := NormalizeFacet(tt.input); got != tt.expected {
			t.Errorf("NormalizeFacet(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidateFacet(t *testing.T) {
	valid := []string{"/", "/country", "/country/US"}
	for _, v := range valid {
		if err := ValidateFacet(v); err != nil {
			t.Errorf("ValidateFacet(%q) = %v", v, err)
		}
	}
	invalid := []string{"", "country/US", "/country/", "//US"}
	for _, v := range invalid {
		if err := ValidateFacet(v); err == nil {
			t.Errorf("ValidateFacet(%q) should fail", v)
		}
	}
}

func TestFacetAncestors(t *testing.T) {
	if got := FacetAncestors("/country/US"); !reflect.DeepEqual(got, []string{"/country", "/country/US"}) {
		t.Errorf("FacetAncestors() = %v", got)
	}
	if got := FacetAncestors("/sex"); !reflect.DeepEqual(got, []string{"/sex"}) {
		t.Errorf("FacetAncestors() = %v", got)
	}
	if got := FacetAncestors("/"); got != nil {
		t.Errorf("FacetAncestors(/) = %v, want nil", got)
	}
}
