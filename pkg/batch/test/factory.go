package test

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/domain/entity"
)

// BaseEventTime is the OccurredAt of the first event built by NewResponseEvents.
var BaseEventTime = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

// NewResponseEvent builds one unpersisted event. seq makes the attributes distinguishable.
func NewResponseEvent(seq int) *entity.ResponseEvent {
	return &entity.ResponseEvent{
		RespondentID: uuid.NewString(),
		SurveyID:     "survey-1",
		QuestionID:   fmt.Sprintf("q%d", seq%5+1),
		Answer:       fmt.Sprintf("answer-%d", seq),
		Score:        seq % 11,
		Payload:      datatypes.JSONMap{"seq": seq},
		OccurredAt:   BaseEventTime.Add(time.Duration(seq) * time.Minute),
	}
}

// NewResponseEvents builds n unpersisted events with increasing sequence numbers.
func NewResponseEvents(n int) []*entity.ResponseEvent {
	events := make([]*entity.ResponseEvent, n)
	for i := range events {
		events[i] = NewResponseEvent(i)
	}
	return events
}
