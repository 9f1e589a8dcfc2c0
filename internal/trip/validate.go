package trip

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxDestinationLen  = 100
	maxDurationDays    = 30
	maxRequirementsLen = 500
	maxTravelStyles    = 5
)

// suspiciousPatterns flag SQL keywords, XSS vectors, path traversal and code
// execution attempts. Any match rejects the whole request; input is never
// silently stripped.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\bSELECT\b|\bDROP\b|\bINSERT\b|\bUPDATE\b|\bDELETE\b)`),
	regexp.MustCompile(`(?i)(<script|javascript:|onerror=)`),
	regexp.MustCompile(`(\.\./|\.\.\\)`),
	regexp.MustCompile(`(?i)(\bexec\b|\beval\b)`),
}

// ValidateRequest normalises and validates a raw plan request in place.
// Whitespace is trimmed from free-text fields before checks. The first
// violation found is returned as a *Error with Kind validation.
func ValidateRequest(req *PlanRequest) error {
	req.Destination = strings.TrimSpace(req.Destination)
	req.SpecialRequirements = strings.TrimSpace(req.SpecialRequirements)
	req.BudgetLevel = strings.TrimSpace(req.BudgetLevel)
	req.ClientID = strings.TrimSpace(req.ClientID)

	if req.Destination == "" {
		return FieldError("destination", "required")
	}
	if utf8.RuneCountInString(req.Destination) > maxDestinationLen {
		return FieldError("destination", "must be at most %d characters", maxDestinationLen)
	}
	if err := scanSuspicious("destination", req.Destination); err != nil {
		return err
	}

	if req.DurationDays < 1 || req.DurationDays > maxDurationDays {
		return FieldError("duration_days", "must be between 1 and %d", maxDurationDays)
	}

	if !containsString(BudgetLevels, req.BudgetLevel) {
		return FieldError("budget_level", "must be one of %s", strings.Join(BudgetLevels, ", "))
	}

	if len(req.TravelStyle) < 1 || len(req.TravelStyle) > maxTravelStyles {
		return FieldError("travel_style", "must select between 1 and %d styles", maxTravelStyles)
	}
	seen := make(map[string]struct{}, len(req.TravelStyle))
	for i, style := range req.TravelStyle {
		style = strings.TrimSpace(style)
		req.TravelStyle[i] = style
		if !containsString(TravelStyles, style) {
			return FieldError("travel_style", "unknown style %q", style)
		}
		if _, dup := seen[style]; dup {
			return FieldError("travel_style", "duplicate style %q", style)
		}
		seen[style] = struct{}{}
	}

	if utf8.RuneCountInString(req.SpecialRequirements) > maxRequirementsLen {
		return FieldError("special_requirements", "must be at most %d characters", maxRequirementsLen)
	}
	if req.SpecialRequirements != "" {
		if err := scanSuspicious("special_requirements", req.SpecialRequirements); err != nil {
			return err
		}
	}

	if req.ClientID == "" {
		return FieldError("client_id", "required")
	}

	return nil
}

func scanSuspicious(field, value string) error {
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(value) {
			return FieldError(field, "contains disallowed content")
		}
	}
	return nil
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
