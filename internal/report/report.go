// Package report runs advisory quality checks over a finished itinerary.
// Warnings never block delivery; they surface generic placeholder content,
// reused hyperlinks and structural damage to operators.
package report

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/zora-digital/tripweaver/config"
	"github.com/zora-digital/tripweaver/internal/helpers"
)

// defaultForbiddenPhrases are generic placeholders the planner is prompted
// never to emit. Their presence means the model invented a venue instead of
// citing a verified one.
var defaultForbiddenPhrases = []string{
	"local bistro",
	"wine tasting event",
	"la marmite des artistes",
	"bistro montparnasse",
}

// Validator inspects itinerary HTML and produces advisory warnings.
type Validator struct {
	expectedAccommodations int
	forbidden              []string
}

// New builds a Validator from config, falling back to the default
// placeholder list when none is configured.
func New(cfg config.ReportConfig) *Validator {
	forbidden := make([]string, 0, len(cfg.ForbiddenPhrases))
	for _, phrase := range cfg.ForbiddenPhrases {
		if p := strings.ToLower(strings.TrimSpace(phrase)); p != "" {
			forbidden = append(forbidden, p)
		}
	}
	if len(forbidden) == 0 {
		forbidden = defaultForbiddenPhrases
	}
	return &Validator{
		expectedAccommodations: cfg.ExpectedAccommodations,
		forbidden:              forbidden,
	}
}

// Validate returns every warning found in htmlDoc. A nil result means the
// document passed all checks.
func (v *Validator) Validate(htmlDoc string) []string {
	var warnings []string
	warnings = append(warnings, v.checkForbiddenPhrases(htmlDoc)...)

	anchors, accommodations, divOpen, divClose := scan(htmlDoc)

	warnings = append(warnings, checkLinks(anchors)...)

	if v.expectedAccommodations > 0 && accommodations != v.expectedAccommodations {
		warnings = append(warnings, fmt.Sprintf(
			"expected %d accommodation options, found %d", v.expectedAccommodations, accommodations))
	}
	if divOpen != divClose {
		warnings = append(warnings, fmt.Sprintf(
			"unbalanced div tags (%d open, %d close)", divOpen, divClose))
	}
	return warnings
}

func (v *Validator) checkForbiddenPhrases(htmlDoc string) []string {
	text := strings.ToLower(helpers.HTMLToText(htmlDoc))
	var warnings []string
	for _, phrase := range v.forbidden {
		if strings.Contains(text, phrase) {
			warnings = append(warnings, fmt.Sprintf("placeholder phrase %q found", phrase))
		}
	}
	return warnings
}

type anchor struct {
	href  string
	label string
}

// scan tokenizes the document once, collecting anchors, the number of
// accommodation sections and the div tag balance. Accommodation sections are
// recognised by a class attribute containing "accommodation".
func scan(htmlDoc string) (anchors []anchor, accommodations, divOpen, divClose int) {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlDoc))
	var current *anchor
	var label strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return anchors, accommodations, divOpen, divClose
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "a":
				if current == nil {
					current = &anchor{href: attr(token, "href")}
					label.Reset()
				}
			case "div":
				if token.Type == html.StartTagToken {
					divOpen++
				}
				if strings.Contains(strings.ToLower(attr(token, "class")), "accommodation") {
					accommodations++
				}
			}
		case html.EndTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "a":
				if current != nil {
					current.label = strings.TrimSpace(label.String())
					anchors = append(anchors, *current)
					current = nil
				}
			case "div":
				divClose++
			}
		case html.TextToken:
			if current != nil {
				label.WriteString(string(tokenizer.Text()))
			}
		}
	}
}

// checkLinks flags malformed hrefs and one canonical URL shared by several
// distinctly labelled links, which usually means one venue's Maps link was
// copied onto another place.
func checkLinks(anchors []anchor) []string {
	var warnings []string
	labelsByURL := make(map[string]map[string]struct{})

	for _, a := range anchors {
		href := strings.TrimSpace(a.href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			continue
		}
		canonical, err := helpers.CanonicalURL(href)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("malformed link %q", href))
			continue
		}
		if a.label == "" {
			continue
		}
		labels, ok := labelsByURL[canonical]
		if !ok {
			labels = make(map[string]struct{})
			labelsByURL[canonical] = labels
		}
		labels[strings.ToLower(a.label)] = struct{}{}
	}

	urls := make([]string, 0, len(labelsByURL))
	for u := range labelsByURL {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	for _, u := range urls {
		if len(labelsByURL[u]) > 1 {
			warnings = append(warnings, fmt.Sprintf("link %s reused for %d different places", u, len(labelsByURL[u])))
		}
	}
	return warnings
}

func attr(token html.Token, name string) string {
	for _, a := range token.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
