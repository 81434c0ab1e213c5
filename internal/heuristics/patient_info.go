// Package heuristics holds the pure text classifiers of the pipeline:
// patient-info extraction, document authorization validation, and query
// classification. Each is an ordered rule list evaluated first match wins.
package heuristics

import (
	"regexp"
	"strings"

	"medichat-go/internal/model"
)

// Patient ID label rules, tried in order. The long hexadecimal form is
// preferred over the dashed form, which is preferred over plain numbers,
// so a MongoDB-style object id is never truncated to its digit prefix.
var patientIDRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)patient\s*id\s*[:#]?\s*([0-9a-f]{24,})`),
	regexp.MustCompile(`(?i)patient\s*id\s*[:#]?\s*([0-9a-f][0-9a-f-]{19,})`),
	regexp.MustCompile(`(?i)patient\s*id\s*[:#]?\s*([0-9]+)`),
}

// Patient name label rules. The capture is non-greedy and stops at the
// next recognized label or end of string.
var patientNameRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)patient\s*name\s*[:#]?\s*([a-z][a-z .'-]*?)(?:\s*\b(?:age|gender|sex|date|dob|id)\b|$)`),
	regexp.MustCompile(`(?i)\bname\s*[:#]?\s*([a-z][a-z .'-]*?)(?:\s*\b(?:age|gender|sex|date|dob|id)\b|$)`),
}

var newlineRe = regexp.MustCompile(`[\r\n]+`)

// ExtractPatientInfo pulls a patient identifier and name out of document
// text. Best effort: both fields stay empty when nothing matches, and the
// function never fails, so ingestion is never blocked on metadata.
func ExtractPatientInfo(text string) model.PatientInfo {
	var info model.PatientInfo
	flat := newlineRe.ReplaceAllString(text, " ")

	for _, rule := range patientIDRules {
		if m := rule.FindStringSubmatch(flat); m != nil {
			info.PatientID = m[1]
			break
		}
	}

	for _, rule := range patientNameRules {
		m := rule.FindStringSubmatch(flat)
		if m == nil {
			continue
		}
		if name := cleanName(m[1]); name != "" {
			info.PatientName = name
			break
		}
	}

	return info
}

// cleanName strips digits, collapses whitespace, and rejects captures
// with no alphabetic content or a single character.
func cleanName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), " ")

	hasAlpha := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasAlpha = true
			break
		}
	}
	if !hasAlpha || len(name) <= 1 {
		return ""
	}
	return name
}
