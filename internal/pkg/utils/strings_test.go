package utils

import (
	"slices"
	"testing"
)

func TestStringInSlice(t *testing.T) {
	haystack := []string{"img", "link", "script"}

	if !StringInSlice("link", haystack) {
		t.Error("StringInSlice(link) = false, want true")
	}

	if StringInSlice("video", haystack) {
		t.Error("StringInSlice(video) = true, want false")
	}

	if StringInSlice("img", nil) {
		t.Error("StringInSlice on nil slice = true, want false")
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a.css", "b.png", "a.css", "c.js", "b.png"})
	want := []string{"a.css", "b.png", "c.js"}

	if !slices.Equal(got, want) {
		t.Errorf("DedupeStrings() = %v, want %v", got, want)
	}
}
