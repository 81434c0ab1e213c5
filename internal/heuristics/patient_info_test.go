package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPatientInfoHexID(t *testing.T) {
	info := ExtractPatientInfo("Patient ID: 507f1f77bcf86cd799439011 admitted on 2024-01-02")
	assert.Equal(t, "507f1f77bcf86cd799439011", info.PatientID)
}

func TestExtractPatientInfoDashedID(t *testing.T) {
	info := ExtractPatientInfo("Patient ID: a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	assert.Equal(t, "a1b2c3d4-e5f6-7890-abcd-ef1234567890", info.PatientID)
}

func TestExtractPatientInfoNumericID(t *testing.T) {
	info := ExtractPatientInfo("Patient ID: 123456")
	assert.Equal(t, "123456", info.PatientID)
}

func TestExtractPatientInfoCollapsesNewlines(t *testing.T) {
	info := ExtractPatientInfo("Patient\nID: 987654")
	assert.Equal(t, "987654", info.PatientID)
}

func TestExtractPatientInfoName(t *testing.T) {
	info := ExtractPatientInfo("Patient Name: John Doe Age: 45 Gender: M")
	assert.Equal(t, "John Doe", info.PatientName)
}

func TestExtractPatientInfoNameAtEndOfText(t *testing.T) {
	info := ExtractPatientInfo("Record for Patient Name: Jane Smith")
	assert.Equal(t, "Jane Smith", info.PatientName)
}

func TestExtractPatientInfoRejectsSingleCharName(t *testing.T) {
	info := ExtractPatientInfo("Patient Name: X Age: 30")
	assert.Empty(t, info.PatientName)
}

func TestExtractPatientInfoNothingFound(t *testing.T) {
	info := ExtractPatientInfo("General hospital newsletter, visiting hours 8am-5pm.")
	assert.Empty(t, info.PatientID)
	assert.Empty(t, info.PatientName)
}

func TestExtractPatientInfoEmptyText(t *testing.T) {
	info := ExtractPatientInfo("")
	assert.Empty(t, info.PatientID)
	assert.Empty(t, info.PatientName)
}
