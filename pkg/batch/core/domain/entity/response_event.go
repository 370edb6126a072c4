// Package entity holds the records the ETL pipeline loads.
package entity

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
)

// ResponseEventTableName is the table ResponseEvent rows are stored in.
const ResponseEventTableName = "response_events"

// ResponseEvent is one answer given by a respondent to a survey question.
// ID is assigned by the store and is zero until the event is persisted.
type ResponseEvent struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	RespondentID string            `gorm:"column:respondent_id;type:varchar(36);not null" json:"respondent_id"`
	SurveyID     string            `gorm:"column:survey_id;not null" json:"survey_id"`
	QuestionID   string            `gorm:"column:question_id;not null" json:"question_id"`
	Answer       string            `gorm:"column:answer" json:"answer"`
	Score        int               `gorm:"column:score" json:"score"`
	Payload      datatypes.JSONMap `gorm:"column:payload" json:"payload"`
	OccurredAt   time.Time         `gorm:"column:occurred_at;not null" json:"occurred_at"`
}

// TableName returns the table name for GORM.
func (ResponseEvent) TableName() string {
	return ResponseEventTableName
}

// ToMapping flattens the event into column/value pairs.
// The id column is present only once a key has been assigned.
func (e *ResponseEvent) ToMapping() tx.Mapping {
	m := tx.Mapping{
		"respondent_id": e.RespondentID,
		"survey_id":     e.SurveyID,
		"question_id":   e.QuestionID,
		"answer":        e.Answer,
		"score":         e.Score,
		"payload":       e.Payload,
		"occurred_at":   e.OccurredAt,
	}
	if e.ID != 0 {
		m["id"] = e.ID
	}
	return m
}

// AssignGeneratedKey records the store-generated key.
func (e *ResponseEvent) AssignGeneratedKey(key int64) {
	e.ID = key
}
