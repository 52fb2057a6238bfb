package catalog

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rolex", "rolex"},
		{"Audemars Piguet", "audemars-piguet"},
		{"  Patek   Philippe  ", "patek-philippe"},
		{"A. Lange & Söhne", "a-lange-söhne"},
		{"Dive / Sport", "dive-sport"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrimaryImageURL(t *testing.T) {
	p := Product{Images: []ProductImage{
		{ImageURL: "b.jpg", SortOrder: 2},
		{ImageURL: "a.jpg", SortOrder: 1},
	}}
	if got := p.PrimaryImageURL(); got != "a.jpg" {
		t.Errorf("PrimaryImageURL() = %q, want lowest sort order %q", got, "a.jpg")
	}

	p.Images = append(p.Images, ProductImage{ImageURL: "primary.jpg", IsPrimary: true, SortOrder: 9})
	if got := p.PrimaryImageURL(); got != "primary.jpg" {
		t.Errorf("PrimaryImageURL() = %q, want %q", got, "primary.jpg")
	}

	if got := (&Product{}).PrimaryImageURL(); got != "" {
		t.Errorf("PrimaryImageURL() on empty = %q, want empty", got)
	}
}

func TestConditionValid(t *testing.T) {
	if !ConditionVeryGood.Valid() {
		t.Error("VERY_GOOD should be valid")
	}
	if Condition("MINT").Valid() {
		t.Error("MINT should not be valid")
	}
}
