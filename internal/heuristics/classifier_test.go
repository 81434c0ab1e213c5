package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyQuery(t *testing.T) {
	tests := []struct {
		query           string
		patientSpecific bool
	}{
		{"What's my latest test result?", true},
		{"Show me my records from last year", true},
		{"What medication am I on? Check my prescription please", true},
		{"Was I diagnosed with hypertension?", true},
		{"What are the visiting hours?", false},
		{"Which departments offer cardiology services?", false},
		{"How is diabetes treated?", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.patientSpecific, ClassifyQuery(tt.query), "query: %q", tt.query)
	}
}

func TestDeriveFilterPolicyTable(t *testing.T) {
	// Patient-specific with id: private plus public.
	policy := DeriveFilterPolicy(true, "P1")
	assert.True(t, policy.IsPatientSpecific)
	assert.Equal(t, "P1", policy.EffectivePatientID)
	assert.True(t, policy.IncludePublic)

	// Patient-specific without id: public only, never private.
	policy = DeriveFilterPolicy(true, "")
	assert.True(t, policy.IsPatientSpecific)
	assert.Empty(t, policy.EffectivePatientID)
	assert.True(t, policy.IncludePublic)

	// General with id: public plus that patient's private records.
	policy = DeriveFilterPolicy(false, "P1")
	assert.False(t, policy.IsPatientSpecific)
	assert.Equal(t, "P1", policy.EffectivePatientID)
	assert.True(t, policy.IncludePublic)

	// General without id: public only.
	policy = DeriveFilterPolicy(false, "")
	assert.False(t, policy.IsPatientSpecific)
	assert.Empty(t, policy.EffectivePatientID)
	assert.True(t, policy.IncludePublic)
}
