package report

import (
	"strings"
	"testing"

	"github.com/zora-digital/tripweaver/config"
)

func newValidator() *Validator {
	return New(config.ReportConfig{ExpectedAccommodations: 3})
}

func goodItinerary() string {
	return `<html><body>
<div class="accommodation"><a href="https://www.google.com/maps/search/?api=1&query=Hotel+A&query_place_id=A1">Hotel A</a></div>
<div class="accommodation"><a href="https://www.google.com/maps/search/?api=1&query=Hotel+B&query_place_id=B2">Hotel B</a></div>
<div class="accommodation"><a href="https://www.google.com/maps/search/?api=1&query=Hotel+C&query_place_id=C3">Hotel C</a></div>
<div class="day"><a href="https://www.google.com/maps/search/?api=1&query=Museum&query_place_id=M4">City Museum</a></div>
</body></html>`
}

func TestValidateCleanDocument(t *testing.T) {
	if warnings := newValidator().Validate(goodItinerary()); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestValidatePlaceholderPhrases(t *testing.T) {
	doc := strings.Replace(goodItinerary(), "City Museum", "a charming Local Bistro", 1)
	warnings := newValidator().Validate(doc)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "local bistro") {
		t.Fatalf("expected placeholder warning, got %v", warnings)
	}
}

func TestValidateDuplicateLinks(t *testing.T) {
	doc := `<html><body>
<div class="accommodation"><a href="https://example.com/place?b=2&a=1">Hotel A</a></div>
<div class="accommodation"><a href="https://EXAMPLE.com/place?a=1&b=2#x">Hotel B</a></div>
<div class="accommodation"><a href="https://example.com/other">Hotel C</a></div>
</body></html>`
	warnings := newValidator().Validate(doc)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "reused for 2 different places") {
		t.Fatalf("expected duplicate link warning, got %v", warnings)
	}
}

func TestValidateSameLinkSameLabelOK(t *testing.T) {
	// The same place linked twice under the same name is legitimate.
	doc := strings.Replace(goodItinerary(), "</body>",
		`<div class="day"><a href="https://www.google.com/maps/search/?api=1&query=Museum&query_place_id=M4">City Museum</a></div></body>`, 1)
	if warnings := newValidator().Validate(doc); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestValidateMalformedLink(t *testing.T) {
	doc := strings.Replace(goodItinerary(),
		`href="https://www.google.com/maps/search/?api=1&query=Museum&query_place_id=M4"`,
		`href="ht!tp://%zz"`, 1)
	warnings := newValidator().Validate(doc)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "malformed link") {
		t.Fatalf("expected malformed link warning, got %v", warnings)
	}
}

func TestValidateAccommodationCount(t *testing.T) {
	doc := strings.Replace(goodItinerary(), `<div class="accommodation"><a href="https://www.google.com/maps/search/?api=1&query=Hotel+C&query_place_id=C3">Hotel C</a></div>`, "", 1)
	warnings := newValidator().Validate(doc)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "expected 3 accommodation options, found 2") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected accommodation count warning, got %v", warnings)
	}
}

func TestValidateUnbalancedDivs(t *testing.T) {
	doc := strings.Replace(goodItinerary(), "</div>\n", "\n", 1)
	warnings := newValidator().Validate(doc)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "unbalanced div tags") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unbalanced div warning, got %v", warnings)
	}
}
