package loader

import (
	"context"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
)

// EntityLoader stages entities with a unit of work and reports how many were loaded.
type EntityLoader[T any] struct {
	settings
}

// NewEntityLoader creates an EntityLoader.
func NewEntityLoader[T any](opts ...Option) *EntityLoader[T] {
	return &EntityLoader[T]{settings: newSettings(opts)}
}

// Load stages every entity in order. The rows reach the store on the caller's Flush.
//
// After the whole batch is staged, including an empty one, exactly one INFO record
// is written with the entity count. A staging error is returned as is and no
// record is written.
func (l *EntityLoader[T]) Load(ctx context.Context, uow tx.UnitOfWork, entities []T) error {
	table := tableOf(entities)
	ctx, end := l.tracer.StartLoadSpan(ctx, table, len(entities))
	defer end()

	for _, e := range entities {
		if err := uow.Stage(ctx, e); err != nil {
			l.tracer.RecordError(ctx, moduleName, err)
			return err
		}
	}

	l.recorder.RecordLoad(ctx, table, len(entities))
	l.sink().Infof(l.summary, len(entities))
	return nil
}

type tableNamer interface {
	TableName() string
}

// tableOf returns the table of the first entity, or "" if it cannot be told.
func tableOf[T any](entities []T) string {
	if len(entities) == 0 {
		return ""
	}
	if n, ok := any(entities[0]).(tableNamer); ok {
		return n.TableName()
	}
	return ""
}
