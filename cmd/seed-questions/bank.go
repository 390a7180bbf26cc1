package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/validator"
	"gopkg.in/yaml.v3"
)

// parseBank decodes a list of questions. JSON input is accepted as well since
// it is a subset of YAML. Every entry is validated before anything is written.
func parseBank(raw []byte) ([]model.QuestionRequest, error) {
	var bank []model.QuestionRequest
	if err := yaml.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(bank) == 0 {
		return nil, errors.New("no questions found")
	}

	var problems []string
	for i := range bank {
		if fields := validator.Struct(&bank[i]); fields != nil {
			problems = append(problems, fmt.Sprintf("#%d: %s", i+1, formatFields(fields)))
		}
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "\n"))
	}
	return bank, nil
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fields[k]
	}
	return strings.Join(parts, ", ")
}

var sampleBank = []model.QuestionRequest{
	{
		Text: "What is 7 x 8?", Category: "Mathematics", Difficulty: "easy", Marks: 1,
		Options: []model.OptionRequest{{Text: "54"}, {Text: "56", IsCorrect: true}, {Text: "58"}, {Text: "64"}},
	},
	{
		Text: "What is the square root of 144?", Category: "Mathematics", Difficulty: "easy", Marks: 1,
		Options: []model.OptionRequest{{Text: "10"}, {Text: "11"}, {Text: "12", IsCorrect: true}, {Text: "14"}},
	},
	{
		Text: "Solve for x: 3x + 5 = 20", Category: "Mathematics", Difficulty: "medium", Marks: 2,
		Options: []model.OptionRequest{{Text: "3"}, {Text: "5", IsCorrect: true}, {Text: "6"}, {Text: "15"}},
	},
	{
		Text: "Which planet is closest to the sun?", Category: "Science", Difficulty: "easy", Marks: 1,
		Options: []model.OptionRequest{{Text: "Venus"}, {Text: "Mercury", IsCorrect: true}, {Text: "Mars"}, {Text: "Earth"}},
	},
	{
		Text: "What is the chemical symbol for sodium?", Category: "Science", Difficulty: "medium", Marks: 1,
		Options: []model.OptionRequest{{Text: "So"}, {Text: "Sd"}, {Text: "Na", IsCorrect: true}, {Text: "S"}},
	},
	{
		Text: "Which gas do plants absorb during photosynthesis?", Category: "Science", Difficulty: "easy", Marks: 1,
		Options: []model.OptionRequest{{Text: "Oxygen"}, {Text: "Nitrogen"}, {Text: "Carbon dioxide", IsCorrect: true}, {Text: "Hydrogen"}},
	},
	{
		Text: "In which year did World War II end?", Category: "History", Difficulty: "medium", Marks: 1,
		Options: []model.OptionRequest{{Text: "1943"}, {Text: "1945", IsCorrect: true}, {Text: "1947"}, {Text: "1950"}},
	},
	{
		Text: "Who proclaimed Indonesian independence in 1945?", Category: "History", Difficulty: "easy", Marks: 1,
		Options: []model.OptionRequest{{Text: "Soekarno", IsCorrect: true}, {Text: "Soeharto"}, {Text: "Habibie"}, {Text: "Hatta"}},
	},
	{
		Text: "Which data structure uses first-in first-out order?", Category: "Computer Science", Difficulty: "easy", Marks: 1,
		Options: []model.OptionRequest{{Text: "Stack"}, {Text: "Queue", IsCorrect: true}, {Text: "Tree"}, {Text: "Graph"}},
	},
	{
		Text: "What is the time complexity of binary search?", Category: "Computer Science", Difficulty: "hard", Marks: 2,
		Options: []model.OptionRequest{{Text: "O(n)"}, {Text: "O(log n)", IsCorrect: true}, {Text: "O(n log n)"}, {Text: "O(1)"}},
	},
}
