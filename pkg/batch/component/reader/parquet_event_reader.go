// Package reader extracts response events from parquet files.
package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"gorm.io/datatypes"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/domain/entity"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

const moduleName = "reader"

// DefaultBatchSize is the number of rows decoded per read.
const DefaultBatchSize = 1000

// ResponseEventRow is the parquet layout of a response event.
type ResponseEventRow struct {
	RespondentID string `parquet:"name=respondent_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	SurveyID     string `parquet:"name=survey_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	QuestionID   string `parquet:"name=question_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	Answer       string `parquet:"name=answer,type=BYTE_ARRAY,convertedtype=UTF8"`
	Score        int32  `parquet:"name=score,type=INT32"`
	// Payload is the JSON document of the event, empty when there is none.
	Payload    string `parquet:"name=payload,type=BYTE_ARRAY,convertedtype=UTF8"`
	OccurredAt int64  `parquet:"name=occurred_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
}

// ToEntity converts the row to an unpersisted event.
func (r ResponseEventRow) ToEntity() (*entity.ResponseEvent, error) {
	e := &entity.ResponseEvent{
		RespondentID: r.RespondentID,
		SurveyID:     r.SurveyID,
		QuestionID:   r.QuestionID,
		Answer:       r.Answer,
		Score:        int(r.Score),
		OccurredAt:   time.UnixMilli(r.OccurredAt).UTC(),
	}
	if r.Payload != "" {
		var payload datatypes.JSONMap
		if err := payload.UnmarshalJSON([]byte(r.Payload)); err != nil {
			return nil, fmt.Errorf("invalid payload for respondent %s: %w", r.RespondentID, err)
		}
		e.Payload = payload
	}
	return e, nil
}

// NewResponseEventRow converts an event to its parquet layout. The key is not exported.
func NewResponseEventRow(e *entity.ResponseEvent) (ResponseEventRow, error) {
	row := ResponseEventRow{
		RespondentID: e.RespondentID,
		SurveyID:     e.SurveyID,
		QuestionID:   e.QuestionID,
		Answer:       e.Answer,
		Score:        int32(e.Score),
		OccurredAt:   e.OccurredAt.UnixMilli(),
	}
	if e.Payload != nil {
		raw, err := e.Payload.MarshalJSON()
		if err != nil {
			return row, err
		}
		row.Payload = string(raw)
	}
	return row, nil
}

// ParquetEventReader reads every event of one local parquet file.
type ParquetEventReader struct {
	path      string
	batchSize int
}

// NewParquetEventReader creates a reader for path. batchSize < 1 selects DefaultBatchSize.
func NewParquetEventReader(path string, batchSize int) *ParquetEventReader {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &ParquetEventReader{path: path, batchSize: batchSize}
}

// ReadAll decodes the file in batches and returns the events in file order.
func (r *ParquetEventReader) ReadAll(ctx context.Context) (events []*entity.ResponseEvent, err error) {
	fr, err := local.NewLocalFileReader(r.path)
	if err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "failed to open %s", r.path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ResponseEventRow), 1)
	if err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "failed to read parquet footer of %s", r.path, err)
	}
	defer pr.ReadStop()

	// The parquet library panics on some malformed pages.
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("ParquetEventReader: recovered from panic while reading %s: %v", r.path, rec)
			events, err = nil, exception.NewBatchErrorf(moduleName, "corrupt parquet data in %s: %v", r.path, rec)
		}
	}()

	total := int(pr.GetNumRows())
	events = make([]*entity.ResponseEvent, 0, total)
	for read := 0; read < total; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := r.batchSize
		if remaining := total - read; remaining < n {
			n = remaining
		}
		rows := make([]ResponseEventRow, n)
		if err := pr.Read(&rows); err != nil {
			return nil, exception.NewBatchErrorf(moduleName, "failed to read rows %d-%d of %s", read, read+n, r.path, err)
		}
		for _, row := range rows {
			e, err := row.ToEntity()
			if err != nil {
				return nil, exception.NewBatchErrorf(moduleName, "row %d of %s", read, r.path, err)
			}
			events = append(events, e)
			read++
		}
	}

	logger.Debugf("ParquetEventReader: read %d events from %s", len(events), r.path)
	return events, nil
}
