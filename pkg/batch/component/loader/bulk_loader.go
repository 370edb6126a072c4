package loader

import (
	"context"
	"errors"

	"github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/configbinder"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
)

// ErrMissingGeneratedKey is wrapped when the engine did not return a key that was requested.
var ErrMissingGeneratedKey = errors.New("generated key missing from mapping")

// Mappable is an entity that can travel through the bulk path.
type Mappable interface {
	TableName() string
	// ToMapping flattens the entity. The returned map is owned by the caller.
	ToMapping() tx.Mapping
	AssignGeneratedKey(key int64)
}

// BulkLoaderConfig configures a BulkLoader.
type BulkLoaderConfig struct {
	// TableName overrides the table of the entities. Empty means the first entity's TableName().
	TableName string `yaml:"table_name"`
	// ChunkSize is the maximum number of mappings per bulk-insert call. Must be positive.
	ChunkSize int `yaml:"chunk_size"`
	// ReturnDefaults requests generated keys and assigns them back onto the entities.
	ReturnDefaults bool `yaml:"return_defaults"`
	// KeyColumn is the mapping entry holding the generated key. Defaults to "id".
	KeyColumn string `yaml:"key_column"`
	// SummaryMessage replaces DefaultSummaryMessage when set.
	SummaryMessage string `yaml:"summary_message"`
}

// NewBulkLoaderConfig binds a configuration section (a map or a struct with yaml tags) to a BulkLoaderConfig.
func NewBulkLoaderConfig(section interface{}) (BulkLoaderConfig, error) {
	var cfg BulkLoaderConfig
	if err := configbinder.Bind(section, &cfg); err != nil {
		return cfg, exception.NewBatchError(moduleName, "failed to bind bulk loader configuration", err)
	}
	return cfg, nil
}

// BulkLoader flattens entities to mappings and inserts them in chunks.
type BulkLoader[T Mappable] struct {
	settings
	cfg      BulkLoaderConfig
	inserter *ChunkedBulkInserter
}

// NewBulkLoader creates a BulkLoader. cfg.SummaryMessage, when set, wins over WithSummaryMessage.
func NewBulkLoader[T Mappable](cfg BulkLoaderConfig, opts ...Option) *BulkLoader[T] {
	if cfg.KeyColumn == "" {
		cfg.KeyColumn = "id"
	}
	if cfg.SummaryMessage != "" {
		opts = append(opts, WithSummaryMessage(cfg.SummaryMessage))
	}
	s := newSettings(opts)
	inserter := NewChunkedBulkInserter(cfg.ChunkSize, cfg.ReturnDefaults, s.recorder)
	inserter.SetTracer(s.tracer)
	return &BulkLoader[T]{
		settings: s,
		cfg:      cfg,
		inserter: inserter,
	}
}

// Config returns the effective configuration.
func (l *BulkLoader[T]) Config() BulkLoaderConfig {
	return l.cfg
}

// Load inserts entities through engine in chunks of cfg.ChunkSize.
//
// With ReturnDefaults each entity receives its generated key. One INFO summary
// record is written after every chunk succeeded. Inserter errors are returned as is
// and leave the chunks already inserted in the unit of work; the entities of those
// chunks still receive their keys.
func (l *BulkLoader[T]) Load(ctx context.Context, engine tx.BulkInserter, entities []T) (err error) {
	table := l.cfg.TableName
	if table == "" && len(entities) > 0 {
		table = entities[0].TableName()
	}

	ctx, end := l.tracer.StartLoadSpan(ctx, table, len(entities))
	defer func() {
		if err != nil {
			l.tracer.RecordError(ctx, moduleName, err)
		}
		end()
	}()

	mappings := make([]tx.Mapping, len(entities))
	for i, e := range entities {
		mappings[i] = e.ToMapping()
	}

	if err := l.inserter.Insert(ctx, engine, table, mappings); err != nil {
		if l.cfg.ReturnDefaults {
			l.assignAcceptedKeys(entities, mappings)
		}
		return err
	}

	if l.cfg.ReturnDefaults {
		for i, m := range mappings {
			raw, ok := m[l.cfg.KeyColumn]
			if !ok || raw == nil {
				return exception.NewBatchErrorf(moduleName, "row %d of %s has no %q", i, table, l.cfg.KeyColumn, ErrMissingGeneratedKey)
			}
			key, err := decodeKey(raw)
			if err != nil {
				return exception.NewBatchErrorf(moduleName, "row %d of %s: cannot read generated key", i, table, err)
			}
			entities[i].AssignGeneratedKey(key)
		}
	}

	l.recorder.RecordLoad(ctx, table, len(entities))
	l.sink().Infof(l.summary, len(entities))
	return nil
}

// assignAcceptedKeys hands keys to the entities of the chunks the engine accepted
// before a failure. Rows without a readable key are left alone.
func (l *BulkLoader[T]) assignAcceptedKeys(entities []T, mappings []tx.Mapping) {
	for i, m := range mappings {
		raw, ok := m[l.cfg.KeyColumn]
		if !ok || raw == nil {
			continue
		}
		if key, err := decodeKey(raw); err == nil {
			entities[i].AssignGeneratedKey(key)
		}
	}
}

func decodeKey(raw interface{}) (int64, error) {
	var key int64
	err := configbinder.Bind(raw, &key)
	return key, err
}
