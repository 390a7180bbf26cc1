package main

import (
	"testing"

	"github.com/stemsi/quizdesk-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBankYAML(t *testing.T) {
	raw := []byte(`
- text: "2 + 2?"
  category: Mathematics
  marks: 1
  options:
    - text: "3"
    - text: "4"
      is_correct: true
`)
	bank, err := parseBank(raw)
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.Equal(t, "Mathematics", bank[0].Category)
	require.Len(t, bank[0].Options, 2)
	assert.True(t, bank[0].Options[1].IsCorrect)
}

func TestParseBankJSON(t *testing.T) {
	raw := []byte(`[{"text": "Capital of France?", "category": "Geography", "marks": 2,
		"options": [{"text": "Paris", "is_correct": true}, {"text": "Rome"}]}]`)
	bank, err := parseBank(raw)
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.Equal(t, 2, bank[0].Marks)
}

func TestParseBankRejectsInvalidEntries(t *testing.T) {
	raw := []byte(`
- text: ""
  category: " padded "
  marks: 0
  options: []
`)
	_, err := parseBank(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#1:")
	assert.Contains(t, err.Error(), "text")
}

func TestParseBankRejectsEmptyInput(t *testing.T) {
	_, err := parseBank([]byte("[]"))
	assert.Error(t, err)
}

func TestSampleBankIsValid(t *testing.T) {
	for i := range sampleBank {
		assert.Nil(t, validator.Struct(&sampleBank[i]), "sample question #%d", i+1)
	}
}
