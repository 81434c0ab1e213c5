package heuristics

import (
	"strings"

	"medichat-go/internal/model"
	"medichat-go/pkg/log"
)

// Phrases indicating personal-record intent. Tunable; matched as
// case-insensitive substrings.
var patientSpecificPhrases = []string{
	"my records",
	"my record",
	"my latest",
	"my recent",
	"my results",
	"my result",
	"my test",
	"my lab",
	"my medical history",
	"my history",
	"my medication",
	"my prescription",
	"my diagnosis",
	"my treatment",
	"my condition",
	"my appointment",
	"my doctor",
	"my file",
	"my health",
	"my blood",
	"my scan",
	"my x-ray",
	"my report",
	"was i diagnosed",
	"am i on",
	"do i have",
	"when was my",
	"what did my",
	"show me my",
}

// ClassifyQuery reports whether a chat query asks about the caller's own
// records rather than general medical or hospital information.
func ClassifyQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range patientSpecificPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// DeriveFilterPolicy maps the classification and the caller-supplied
// patient id to the retrieval filter:
//
//	patient-specific with id      -> that patient's private records plus public
//	patient-specific without id   -> public only, with a warning
//	general with id               -> public plus that patient's private records
//	general without id            -> public only
//
// A patient-specific query without an id never sees private content, and
// a general query with an id still gets that patient's private records.
func DeriveFilterPolicy(isPatientSpecific bool, patientID string) model.FilterPolicy {
	policy := model.FilterPolicy{
		IsPatientSpecific: isPatientSpecific,
		IncludePublic:     true,
	}

	switch {
	case isPatientSpecific && patientID != "":
		policy.EffectivePatientID = patientID
	case isPatientSpecific:
		log.Warnf("[Classifier] patient-specific query without patient_id, restricting to public records")
	case patientID != "":
		policy.EffectivePatientID = patientID
	}

	return policy
}
