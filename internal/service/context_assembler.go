package service

import (
	"context"
	"fmt"
	"strings"

	"medichat-go/internal/model"
	"medichat-go/pkg/events"
	"medichat-go/pkg/log"
)

const (
	// promptContentLimit bounds per-record content in the model prompt.
	promptContentLimit = 500
	// displayContentLimit bounds per-record content echoed to the caller.
	// Intentionally smaller than promptContentLimit: the model sees more
	// context than the caller is shown.
	displayContentLimit = 200
	// maxDisplayRecords caps the records echoed back per chat turn.
	maxDisplayRecords = 3
)

const basePrompt = `You are a helpful medical assistant chatbot. You provide informative and accurate responses about medical queries based on available patient data and general medical knowledge.

Important guidelines:
- Always prioritize patient safety and privacy
- Provide helpful information but remind users to consult healthcare professionals for medical decisions
- Be clear about the limitations of AI-generated medical advice
- Maintain a professional and empathetic tone`

const patientSpecificClause = `

CRITICAL PRIVACY REQUIREMENTS:
- This is a PATIENT-SPECIFIC query requiring strict privacy protection
- ONLY use information that belongs to the specified patient
- DO NOT include or reference any other patient's data
- If no relevant patient records are found, clearly state that no records are available
- Focus responses on the specific patient's data only`

const generalClause = `

GENERAL INFORMATION MODE:
- This is a general medical/hospital information query
- You can provide broad, non-patient-specific information
- Include general medical knowledge, hospital services, department information, etc.
- No patient privacy restrictions apply for this type of query`

// BuildSystemPrompt assembles the system instruction for one chat turn:
// the assistant persona, the privacy clause matching the classification,
// and the retrieved records in ranked order.
func BuildSystemPrompt(records []model.PatientRecord, isPatientSpecific bool, patientName string) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if isPatientSpecific {
		b.WriteString(patientSpecificClause)
		if patientName != "" {
			b.WriteString(fmt.Sprintf("\n- The patient's name is: %s\n- Personalize responses appropriately while maintaining professionalism", patientName))
		}
	} else {
		b.WriteString(generalClause)
	}

	if len(records) > 0 {
		b.WriteString("\n\nRelevant Records:\n")
		for i, record := range records {
			b.WriteString(fmt.Sprintf("\nRecord %d:\n", i+1))
			b.WriteString(fmt.Sprintf("Content: %s\n", truncateRunes(record.Content, promptContentLimit)))
			b.WriteString(fmt.Sprintf("Source: %s (chunk %d, type %s)\n", record.SourceFile, record.ChunkIndex, record.ContentType))
			b.WriteString(fmt.Sprintf("Relevance Score: %.3f\n", record.Score))
		}
		if isPatientSpecific {
			b.WriteString("\n\nUse ONLY the above patient-specific records to provide responses. Do not include information from other patients.")
		} else {
			b.WriteString("\n\nUse the above records along with general medical knowledge to provide comprehensive responses.")
		}
	} else if isPatientSpecific {
		b.WriteString("\n\nNo patient-specific records found. Inform the user that no records are available for their query.")
	}

	return b.String()
}

// ShapeContextRecords is the privacy enforcement boundary: it walks
// retrieved records in ranked order and keeps at most maxDisplayRecords
// for display. Public records always pass. Private records pass only when
// their patient id exactly matches the effective patient id; anything
// else, including records with an unknown or missing content type, is
// silently dropped so a privacy violation never reaches the caller. Drops
// are logged and published as access-denied events.
func ShapeContextRecords(ctx context.Context, records []model.PatientRecord, effectivePatientID string, publisher events.Publisher) []model.ContextRecord {
	var shaped []model.ContextRecord
	for _, record := range records {
		if len(shaped) >= maxDisplayRecords {
			break
		}

		accessLevel := model.AccessLevelPrivate
		if record.ContentType == model.ContentTypeHospitalPublic {
			accessLevel = model.AccessLevelPublic
		} else if record.PatientID == "" || effectivePatientID == "" || record.PatientID != effectivePatientID {
			log.Warnf("[Privacy] dropping record %s: patient mismatch (record patient %q, effective patient %q)",
				record.RecordID, record.PatientID, effectivePatientID)
			publisher.Publish(ctx, events.TypeAccessDenied, events.AccessDenied{
				RecordID:           record.RecordID,
				RecordPatientID:    record.PatientID,
				EffectivePatientID: effectivePatientID,
				ContentType:        record.ContentType,
			})
			continue
		}

		shaped = append(shaped, model.ContextRecord{
			RecordID:    record.RecordID,
			Content:     truncateRunes(record.Content, displayContentLimit),
			Score:       record.Score,
			AccessLevel: accessLevel,
			Metadata: model.ContextRecordMeta{
				PatientID: record.PatientID,
				Source:    record.SourceFile,
			},
		})
	}
	return shaped
}

// truncateRunes cuts s to at most limit runes, appending an ellipsis
// marker when content was removed.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
