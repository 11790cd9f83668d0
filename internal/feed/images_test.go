package feed

import (
	"fmt"
	"testing"

	"feedforge/internal/domain"
)

func TestPrimaryImagePrecedence(t *testing.T) {
	p := &domain.Product{
		FeaturedImage: "https://cdn.example.com/featured.jpg",
		Images: []domain.Image{
			{URL: "https://cdn.example.com/first.jpg"},
		},
	}

	if got := PrimaryImage(p, "https://cdn.example.com/variant.jpg"); got != "https://cdn.example.com/variant.jpg" {
		t.Errorf("variant override should win, got %q", got)
	}
	if got := PrimaryImage(p, ""); got != "https://cdn.example.com/featured.jpg" {
		t.Errorf("featured image should win without override, got %q", got)
	}

	p.FeaturedImage = ""
	if got := PrimaryImage(p, ""); got != "https://cdn.example.com/first.jpg" {
		t.Errorf("first gallery image should be the fallback, got %q", got)
	}

	p.Images = nil
	if got := PrimaryImage(p, ""); got != "" {
		t.Errorf("expected empty primary for imageless product, got %q", got)
	}
}

func TestAdditionalImagesExcludesPrimary(t *testing.T) {
	p := &domain.Product{
		Images: []domain.Image{
			{URL: "https://cdn.example.com/a.jpg"},
			{URL: "https://cdn.example.com/b.jpg"},
			{URL: "https://cdn.example.com/a.jpg"},
			{URL: ""},
			{URL: "https://cdn.example.com/c.jpg"},
		},
	}

	got := AdditionalImages(p, "https://cdn.example.com/a.jpg")

	want := []string{"https://cdn.example.com/b.jpg", "https://cdn.example.com/c.jpg"}
	if len(got) != len(want) {
		t.Fatalf("expected %d images, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("image %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAdditionalImagesCap(t *testing.T) {
	p := &domain.Product{}
	for i := 0; i < MaxAdditionalImages+5; i++ {
		p.Images = append(p.Images, domain.Image{
			URL: fmt.Sprintf("https://cdn.example.com/%d.jpg", i),
		})
	}

	got := AdditionalImages(p, "")
	if len(got) != MaxAdditionalImages {
		t.Errorf("expected cap of %d images, got %d", MaxAdditionalImages, len(got))
	}
	// Order preserved up to the cap
	if got[0] != "https://cdn.example.com/0.jpg" || got[MaxAdditionalImages-1] != fmt.Sprintf("https://cdn.example.com/%d.jpg", MaxAdditionalImages-1) {
		t.Error("images should keep their gallery order")
	}
}
