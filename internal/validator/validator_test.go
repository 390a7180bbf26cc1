package validator

import (
	"testing"

	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestStructCustomTags(t *testing.T) {
	Setup()

	ok := model.Registration{StudentName: "Ana", RollNumber: "2024/IPA-07", Category: "General Science"}
	assert.Nil(t, Struct(&ok))

	bad := model.Registration{StudentName: "Ana", RollNumber: "roll number with spaces", Category: " geo"}
	fields := Struct(&bad)
	assert.Contains(t, fields, "roll_number")
	assert.Contains(t, fields, "category")
}

func TestStructRequired(t *testing.T) {
	fields := Struct(&model.Registration{})
	assert.Contains(t, fields, "student_name")
	assert.Contains(t, fields, "roll_number")
	assert.Contains(t, fields, "category")
}
