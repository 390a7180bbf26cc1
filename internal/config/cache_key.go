package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizActiveKey returns the key of the quiz-active flag for a roll number
func (r *CacheKeyStruct) QuizActiveKey(rollNumber string) string {
	return fmt.Sprintf("quiz:%s:active", rollNumber)
}

// QuizSnapshotKey returns the key of the in-progress session snapshot
func (r *CacheKeyStruct) QuizSnapshotKey(rollNumber string) string {
	return fmt.Sprintf("quiz:%s:snapshot", rollNumber)
}

// QuizRegistrationKey returns the key of the registration handoff
func (r *CacheKeyStruct) QuizRegistrationKey(rollNumber string) string {
	return fmt.Sprintf("quiz:%s:registration", rollNumber)
}

// QuizResultKey returns the key of the last result for a roll number
func (r *CacheKeyStruct) QuizResultKey(rollNumber string) string {
	return fmt.Sprintf("quiz:%s:result", rollNumber)
}

// CheaterFlagKey returns the key of the permanent cheater flag
func (r *CacheKeyStruct) CheaterFlagKey(rollNumber string) string {
	return fmt.Sprintf("cheater:%s", rollNumber)
}

// CheaterDetailKey returns the key of the cheater detail record
func (r *CacheKeyStruct) CheaterDetailKey(rollNumber string) string {
	return fmt.Sprintf("cheater:%s:detail", rollNumber)
}

// CachedConfigKey returns the key of the last good quiz configuration
func (r *CacheKeyStruct) CachedConfigKey() string {
	return "quiz:config:cached"
}

// CategoryQuestionsKey returns the key of the cached question list of a category
func (r *CacheKeyStruct) CategoryQuestionsKey(category string) string {
	return fmt.Sprintf("questions:category:%s", category)
}

// RevokedTokenKey returns the key marking an admin token ID as logged out
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

var CacheKey = NewCacheKeyStruct()
