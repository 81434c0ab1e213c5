package heuristics

import (
	"strings"

	"medichat-go/internal/model"
)

// Institution-specific markers. Any single match authorizes the document
// outright.
var institutionPatterns = []string{
	"knh stamp",
	"knh seal",
	"knh letterhead",
	"kenyatta national hospital",
	"knh approved",
	"knh official",
}

// Generic hospital-document markers. A match here authorizes only when an
// institutional keyword also appears somewhere in the text.
var genericPatterns = []string{
	"hospital document",
	"official stamp",
	"official seal",
	"doctor signature",
	"medical superintendent",
	"hospital letterhead",
}

var institutionalKeywords = []string{
	"hospital",
	"medical center",
	"medical centre",
	"health facility",
	"ministry of health",
	"clinic",
}

// ValidateAuthorization decides whether document text carries valid
// institutional authorization markers. It gates the hospital-public
// upload path only; patient-private uploads are not validated here.
func ValidateAuthorization(text string) model.AuthorizationResult {
	if strings.TrimSpace(text) == "" {
		return model.AuthorizationResult{
			Authorized: false,
			Reason:     "cannot validate authorization: no extractable text",
		}
	}

	lower := strings.ToLower(text)

	var matched []string
	for _, p := range institutionPatterns {
		if strings.Contains(lower, p) {
			matched = append(matched, p)
		}
	}
	if len(matched) > 0 {
		return model.AuthorizationResult{
			Authorized:      true,
			Reason:          "institution-specific authorization markers found",
			MatchedPatterns: matched,
		}
	}

	var generic []string
	for _, p := range genericPatterns {
		if strings.Contains(lower, p) {
			generic = append(generic, p)
		}
	}
	if len(generic) > 0 {
		for _, kw := range institutionalKeywords {
			if strings.Contains(lower, kw) {
				return model.AuthorizationResult{
					Authorized:      true,
					Reason:          "generic hospital document markers found with institutional keyword",
					MatchedPatterns: append(generic, kw),
				}
			}
		}
	}

	return model.AuthorizationResult{
		Authorized: false,
		Reason:     "document does not contain required institutional identifiers",
	}
}
