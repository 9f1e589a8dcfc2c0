package core

import (
	"fmt"
	"strings"

	"github.com/zora-digital/tripweaver/internal/places"
	"github.com/zora-digital/tripweaver/internal/search/serper"
	"github.com/zora-digital/tripweaver/internal/trip"
)

const styleBlock = `<style>
  body { font-family: Arial; color: #3D3D3D; }
  h1 { color: #0F0F0F; }
  h2 { color: #1C1C1C; }
  p, li { color: #3D3D3D; line-height: 1.6; }
  a { color: #2C7EF4; font-weight: 600; text-decoration: none; }
  a:hover { text-decoration: underline; }
</style>`

const antiHallucinationRules = `ZERO-HALLUCINATION RULES:
- Never invent restaurants, hotels or activities.
- Never use generic placeholders such as "local bistro", "wine tasting event",
  "La Marmite des Artistes" or "Bistro Montparnasse".
- A location is valid only if it is in the destination city AND country.
- Copy street addresses EXACTLY, character for character, from the verified
  source. Never reformat, translate or guess address components.
- If multiple branches exist, use only the branch in the destination city.
- If a detail cannot be verified, EXCLUDE the location entirely.
- No illegal, unsafe, explicit or discriminatory content.
- Follow only explicitly stated special requirements; never infer preferences.`

func researchPrompt(req trip.PlanRequest, verifiedPlaces []places.Place, searchContext []serper.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a precision travel researcher.\n\n")
	fmt.Fprintf(&b, "Research the destination: %s\nDuration: %d days\nBudget: %s\nTravel Style: %s\n",
		req.Destination, req.DurationDays, req.BudgetLevel, strings.Join(req.TravelStyle, ", "))
	if req.SpecialRequirements != "" {
		fmt.Fprintf(&b, "Special Requirements: %s\n", req.SpecialRequirements)
	}
	b.WriteString("\n" + antiHallucinationRules + "\n")

	if len(verifiedPlaces) > 0 {
		b.WriteString("\nVERIFIED PLACES (from Google Places; addresses and links are authoritative):\n")
		for _, p := range verifiedPlaces {
			fmt.Fprintf(&b, "- %s | %s | %s", p.Name, p.FormattedAddress, p.MapsURL)
			if p.Rating > 0 {
				fmt.Fprintf(&b, " | %.1f/5 (%d reviews)", p.Rating, p.RatingsTotal)
			}
			if p.Website != "" {
				fmt.Fprintf(&b, " | %s", p.Website)
			}
			b.WriteString("\n")
		}
	}
	if len(searchContext) > 0 {
		b.WriteString("\nWEB SEARCH CONTEXT:\n")
		for _, r := range searchContext {
			fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
		}
	}

	b.WriteString(`
OUTPUT FORMAT (plain text, no HTML):
For each verified location list name, category, EXACT address copied verbatim,
primary URL (Google Maps for restaurants, official website for attractions and
activity providers) and a short factual description. Include exactly 3
accommodation options with realistic nightly prices for the budget level.`)
	return b.String()
}

func reviewPrompt(req trip.PlanRequest, research string, pageExcerpts map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a travel verification auditor, the final line of defense against hallucinated places.\n\n")
	fmt.Fprintf(&b, "Review the research below for %s.\n\n", req.Destination)
	b.WriteString(antiHallucinationRules + "\n")
	b.WriteString(`
RE-VERIFICATION REQUIREMENTS:
- Confirm each business exists, is active and its address exactly matches.
- Remove wrong addresses, alternate-country results, ambiguous multi-location
  names, generic placeholders, invented mashups, activities without real
  providers, restaurants without Maps listings.
- If something is removed, replace it only with a verified alternative from the
  research; otherwise drop it.

Output the fully validated research, same plain-text format, nothing else.
`)
	if len(pageExcerpts) > 0 {
		b.WriteString("\nFETCHED PAGE EXCERPTS (use to confirm or reject):\n")
		for url, excerpt := range pageExcerpts {
			fmt.Fprintf(&b, "--- %s ---\n%s\n", url, excerpt)
		}
	}
	b.WriteString("\nRESEARCH TO REVIEW:\n" + research)
	return b.String()
}

func planPrompt(req trip.PlanRequest, validated string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an evidence-based itinerary planner.\n\n")
	fmt.Fprintf(&b, "Create a detailed %d-day HTML itinerary for %s using ONLY the validated research below.\n\n",
		req.DurationDays, req.Destination)
	b.WriteString(antiHallucinationRules + "\n")
	fmt.Fprintf(&b, `
HTML REQUIREMENTS:
- Complete HTML document; insert this EXACT style block into <head>:
%s
- EVERY location must be hyperlinked in this exact format:
  <a href="PRIMARY_URL" target="_blank" rel="noopener noreferrer">Name</a>
  Restaurants link to Google Maps; attractions and activities to the official
  or provider website. No plain-text place names.
- Output addresses exactly as validated; if an address is missing, exclude the
  location.
- Structure: a header with the trip summary, a section per day with morning,
  afternoon and evening entries, and exactly 3 accommodation options each in a
  <div class="accommodation"> section with nightly price.
- Respond with the HTML document only.

VALIDATED RESEARCH:
%s`, styleBlock, validated)
	return b.String()
}
