package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tigerroll/surfin-etl/pkg/batch/component/reader"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/domain/entity"
)

// Source describes where the events of a run come from.
type Source struct {
	// Input is a parquet file. When empty, Count synthetic events are generated.
	Input string
	Count int
	// BatchSize is the parquet read batch size.
	BatchSize int
}

// Extract returns the events described by s.
func (s Source) Extract(ctx context.Context) ([]*entity.ResponseEvent, error) {
	if s.Input != "" {
		return reader.NewParquetEventReader(s.Input, s.BatchSize).ReadAll(ctx)
	}
	if s.Count < 0 {
		return nil, fmt.Errorf("event count must not be negative, got %d", s.Count)
	}
	return SyntheticEvents(s.Count, time.Now().UTC()), nil
}

// SyntheticEvents builds n events from random respondents, one second apart starting at start.
func SyntheticEvents(n int, start time.Time) []*entity.ResponseEvent {
	events := make([]*entity.ResponseEvent, n)
	for i := range events {
		events[i] = &entity.ResponseEvent{
			RespondentID: uuid.NewString(),
			SurveyID:     "synthetic",
			QuestionID:   fmt.Sprintf("q%d", i%10+1),
			Answer:       fmt.Sprintf("answer-%d", i),
			Score:        i % 11,
			Payload:      datatypes.JSONMap{"source": "synthetic", "seq": i},
			OccurredAt:   start.Add(time.Duration(i) * time.Second),
		}
	}
	return events
}
