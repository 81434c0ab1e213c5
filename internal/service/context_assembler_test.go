package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichat-go/internal/model"
	"medichat-go/pkg/events"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	types    []string
	payloads []interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload interface{}) {
	p.types = append(p.types, eventType)
	p.payloads = append(p.payloads, payload)
}

func TestShapeContextRecordsDropsForeignPrivateRecord(t *testing.T) {
	publisher := &recordingPublisher{}
	records := []model.PatientRecord{
		{RecordID: "r1", ContentType: model.ContentTypePatientPrivate, PatientID: "P2", Content: "p2 result", Score: 0.95},
		{RecordID: "r2", ContentType: model.ContentTypeHospitalPublic, Content: "visiting hours", Score: 0.90},
	}

	shaped := ShapeContextRecords(context.Background(), records, "P1", publisher)

	require.Len(t, shaped, 1)
	assert.Equal(t, "r2", shaped[0].RecordID)
	assert.Equal(t, model.AccessLevelPublic, shaped[0].AccessLevel)

	require.Len(t, publisher.types, 1)
	assert.Equal(t, events.TypeAccessDenied, publisher.types[0])
	denied := publisher.payloads[0].(events.AccessDenied)
	assert.Equal(t, "r1", denied.RecordID)
	assert.Equal(t, "P2", denied.RecordPatientID)
	assert.Equal(t, "P1", denied.EffectivePatientID)
}

func TestShapeContextRecordsKeepsMatchingPrivateRecord(t *testing.T) {
	records := []model.PatientRecord{
		{RecordID: "r1", ContentType: model.ContentTypePatientPrivate, PatientID: "P1", Content: "p1 labs", Score: 0.9},
	}

	shaped := ShapeContextRecords(context.Background(), records, "P1", events.NopPublisher{})

	require.Len(t, shaped, 1)
	assert.Equal(t, model.AccessLevelPrivate, shaped[0].AccessLevel)
	assert.Equal(t, "P1", shaped[0].Metadata.PatientID)
}

func TestShapeContextRecordsUnknownTypeTreatedAsPrivate(t *testing.T) {
	records := []model.PatientRecord{
		{RecordID: "r1", ContentType: model.ContentTypeUnknown, PatientID: "P1", Content: "tagged"},
		{RecordID: "r2", ContentType: "", PatientID: "", Content: "untagged"},
		{RecordID: "r3", ContentType: model.ContentTypeUnknown, PatientID: "P2", Content: "foreign"},
	}

	shaped := ShapeContextRecords(context.Background(), records, "P1", events.NopPublisher{})

	require.Len(t, shaped, 1)
	assert.Equal(t, "r1", shaped[0].RecordID)
	assert.Equal(t, model.AccessLevelPrivate, shaped[0].AccessLevel)
}

func TestShapeContextRecordsNoEffectivePatientDropsAllPrivate(t *testing.T) {
	records := []model.PatientRecord{
		{RecordID: "r1", ContentType: model.ContentTypePatientPrivate, PatientID: "P1"},
		{RecordID: "r2", ContentType: model.ContentTypeHospitalPublic, Content: "ok"},
	}

	shaped := ShapeContextRecords(context.Background(), records, "", events.NopPublisher{})

	require.Len(t, shaped, 1)
	assert.Equal(t, "r2", shaped[0].RecordID)
}

func TestShapeContextRecordsCapsAtThree(t *testing.T) {
	var records []model.PatientRecord
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		records = append(records, model.PatientRecord{RecordID: id, ContentType: model.ContentTypeHospitalPublic})
	}

	shaped := ShapeContextRecords(context.Background(), records, "", events.NopPublisher{})

	require.Len(t, shaped, 3)
	assert.Equal(t, "a", shaped[0].RecordID)
	assert.Equal(t, "c", shaped[2].RecordID)
}

func TestShapeContextRecordsTruncatesDisplayContent(t *testing.T) {
	long := strings.Repeat("x", 350)
	records := []model.PatientRecord{
		{RecordID: "r1", ContentType: model.ContentTypeHospitalPublic, Content: long},
	}

	shaped := ShapeContextRecords(context.Background(), records, "", events.NopPublisher{})

	require.Len(t, shaped, 1)
	assert.Equal(t, strings.Repeat("x", 200)+"...", shaped[0].Content)
}

func TestBuildSystemPromptPatientSpecific(t *testing.T) {
	records := []model.PatientRecord{
		{RecordID: "r1", Content: strings.Repeat("y", 600), SourceFile: "labs.pdf", ContentType: model.ContentTypePatientPrivate, Score: 0.88},
	}

	prompt := BuildSystemPrompt(records, true, "Jane Smith")

	assert.Contains(t, prompt, "CRITICAL PRIVACY REQUIREMENTS")
	assert.Contains(t, prompt, "The patient's name is: Jane Smith")
	assert.Contains(t, prompt, "Relevant Records:")
	assert.Contains(t, prompt, strings.Repeat("y", 500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("y", 501))
	assert.Contains(t, prompt, "Use ONLY the above patient-specific records")
	assert.NotContains(t, prompt, "GENERAL INFORMATION MODE")
}

func TestBuildSystemPromptGeneral(t *testing.T) {
	prompt := BuildSystemPrompt(nil, false, "")

	assert.Contains(t, prompt, "GENERAL INFORMATION MODE")
	assert.NotContains(t, prompt, "CRITICAL PRIVACY REQUIREMENTS")
	assert.NotContains(t, prompt, "Relevant Records:")
}

func TestBuildSystemPromptPatientSpecificNoRecords(t *testing.T) {
	prompt := BuildSystemPrompt(nil, true, "")

	assert.Contains(t, prompt, "No patient-specific records found")
}
