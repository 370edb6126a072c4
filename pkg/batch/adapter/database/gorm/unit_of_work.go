package gorm

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"

	tx "github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
)

const moduleName = "gorm"

// DefaultKeyColumn is the generated key column written back by BulkInsertMappings.
const DefaultKeyColumn = "id"

var (
	// ErrInvalidEntity is wrapped when Stage receives something other than a non-nil struct pointer.
	ErrInvalidEntity = errors.New("entity must be a non-nil pointer to a struct")
	// ErrGeneratedKeys is wrapped when generated keys cannot be read back for a bulk insert.
	ErrGeneratedKeys = errors.New("generated keys unavailable")
)

// TxOption configures a GormTxAdapter.
type TxOption func(*GormTxAdapter)

// WithKeyColumn sets the column that receives generated keys on returning inserts.
func WithKeyColumn(column string) TxOption {
	return func(t *GormTxAdapter) {
		if column != "" {
			t.keyColumn = column
		}
	}
}

// GormTxAdapter implements tx.Tx over an open GORM transaction.
//
// Staged entities are held in memory until Flush. BulkInsertMappings writes
// immediately but, like Flush, nothing is visible outside the transaction
// until the manager commits it.
type GormTxAdapter struct {
	db        *gorm.DB
	keyColumn string
	staged    []interface{}
}

// NewGormTxAdapter wraps db, which should be a transaction started with db.Begin.
func NewGormTxAdapter(db *gorm.DB, opts ...TxOption) *GormTxAdapter {
	t := &GormTxAdapter{db: db, keyColumn: DefaultKeyColumn}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stage implements tx.UnitOfWork.
func (t *GormTxAdapter) Stage(ctx context.Context, entity interface{}) error {
	v := reflect.ValueOf(entity)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return exception.NewBatchErrorf(moduleName, "cannot stage %T", entity, ErrInvalidEntity)
	}
	t.staged = append(t.staged, entity)
	return nil
}

// Staged returns the number of entities waiting for the next Flush.
func (t *GormTxAdapter) Staged() int {
	return len(t.staged)
}

// Flush implements tx.UnitOfWork. Entities are created one by one in staging order.
// On failure the failing entity and everything staged after it remain queued.
func (t *GormTxAdapter) Flush(ctx context.Context) error {
	db := t.db.WithContext(ctx)
	for i, entity := range t.staged {
		if err := applyTableName(db, entity).Create(entity).Error; err != nil {
			t.staged = t.staged[i:]
			return err
		}
	}
	t.staged = nil
	return nil
}

// BulkInsertMappings implements tx.BulkInserter.
//
// Consecutive mappings with the same column set are written with one multi-row
// INSERT; columns are emitted in sorted order. When returnDefaults is true the
// generated key of every row is stored under the key column of its mapping.
// Mappings that already carry the key column keep the value they were inserted with.
func (t *GormTxAdapter) BulkInsertMappings(ctx context.Context, tableName string, mappings []tx.Mapping, returnDefaults bool) error {
	if len(mappings) == 0 {
		return nil
	}
	if tableName == "" {
		return exception.NewBatchError(moduleName, "bulk insert requires a table name", nil)
	}

	db := t.db.WithContext(ctx)
	for _, run := range groupByColumns(mappings) {
		if len(run.columns) == 0 {
			return exception.NewBatchErrorf(moduleName, "cannot bulk insert an empty mapping into %s", tableName)
		}
		if err := t.insertRun(db, tableName, run, returnDefaults); err != nil {
			return err
		}
	}
	return nil
}

// columnRun is a maximal sequence of adjacent mappings sharing one column set.
type columnRun struct {
	columns []string
	rows    []tx.Mapping
}

func (r columnRun) has(column string) bool {
	i := sort.SearchStrings(r.columns, column)
	return i < len(r.columns) && r.columns[i] == column
}

func groupByColumns(mappings []tx.Mapping) []columnRun {
	var runs []columnRun
	for _, m := range mappings {
		cols := sortedColumns(m)
		if n := len(runs); n > 0 && sameColumns(runs[n-1].columns, cols) {
			runs[n-1].rows = append(runs[n-1].rows, m)
			continue
		}
		runs = append(runs, columnRun{columns: cols, rows: []tx.Mapping{m}})
	}
	return runs
}

func sortedColumns(m tx.Mapping) []string {
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildInsert renders INSERT INTO t (c1,c2) VALUES (?,?),(?,?) with dialect quoting.
func buildInsert(db *gorm.DB, tableName string, run columnRun) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	db.Dialector.QuoteTo(&b, tableName)
	b.WriteString(" (")
	for i, c := range run.columns {
		if i > 0 {
			b.WriteByte(',')
		}
		db.Dialector.QuoteTo(&b, c)
	}
	b.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(run.columns)*len(run.rows))
	for i, row := range run.rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for j, c := range run.columns {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('?')
			args = append(args, row[c])
		}
		b.WriteByte(')')
	}
	return b.String(), args
}

func (t *GormTxAdapter) insertRun(db *gorm.DB, tableName string, run columnRun, returnDefaults bool) error {
	query, args := buildInsert(db, tableName, run)

	// Runs are split by column set, so either every row of a run carries its key or none does.
	if !returnDefaults || run.has(t.keyColumn) {
		return db.Exec(query, args...).Error
	}

	switch db.Dialector.Name() {
	case "postgres":
		return t.insertReturning(db, query, args, run.rows)
	case "mysql":
		return onOneConnection(db, func(conn *gorm.DB) error {
			if err := conn.Exec(query, args...).Error; err != nil {
				return err
			}
			// LAST_INSERT_ID() is the key of the first row of a multi-row insert.
			var first int64
			if err := conn.Raw("SELECT LAST_INSERT_ID()").Scan(&first).Error; err != nil {
				return exception.NewBatchErrorf(moduleName, "failed to read LAST_INSERT_ID() for %s", tableName, err)
			}
			t.assignSequential(run.rows, first)
			return nil
		})
	case "sqlite":
		return onOneConnection(db, func(conn *gorm.DB) error {
			if err := conn.Exec(query, args...).Error; err != nil {
				return err
			}
			// last_insert_rowid() is the key of the last row.
			var last int64
			if err := conn.Raw("SELECT last_insert_rowid()").Scan(&last).Error; err != nil {
				return exception.NewBatchErrorf(moduleName, "failed to read last_insert_rowid() for %s", tableName, err)
			}
			t.assignSequential(run.rows, last-int64(len(run.rows))+1)
			return nil
		})
	default:
		return exception.NewBatchErrorf(moduleName, "returning generated keys is not supported for dialect %q", db.Dialector.Name(), ErrGeneratedKeys)
	}
}

// onOneConnection runs fc on a single pooled connection unless db is already a transaction.
// The last-insert-id functions are per connection.
func onOneConnection(db *gorm.DB, fc func(*gorm.DB) error) error {
	if _, inTx := db.Statement.ConnPool.(gorm.TxCommitter); inTx {
		return fc(db)
	}
	return db.Connection(fc)
}

func (t *GormTxAdapter) insertReturning(db *gorm.DB, query string, args []interface{}, rows []tx.Mapping) error {
	var b strings.Builder
	b.WriteString(query)
	b.WriteString(" RETURNING ")
	db.Dialector.QuoteTo(&b, t.keyColumn)

	result, err := db.Raw(b.String(), args...).Rows()
	if err != nil {
		return err
	}
	defer result.Close()

	i := 0
	for result.Next() {
		var key int64
		if err := result.Scan(&key); err != nil {
			return err
		}
		if i < len(rows) {
			rows[i][t.keyColumn] = key
		}
		i++
	}
	if err := result.Err(); err != nil {
		return err
	}
	if i != len(rows) {
		return exception.NewBatchErrorf(moduleName, "expected %d generated keys, got %d", len(rows), i, ErrGeneratedKeys)
	}
	return nil
}

func (t *GormTxAdapter) assignSequential(rows []tx.Mapping, first int64) {
	for i, row := range rows {
		row[t.keyColumn] = first + int64(i)
	}
}

// IsTableNotExistError reports whether err means the target table is missing.
func (t *GormTxAdapter) IsTableNotExistError(err error) bool {
	return isTableNotExistError(err)
}

var _ tx.Tx = (*GormTxAdapter)(nil)
