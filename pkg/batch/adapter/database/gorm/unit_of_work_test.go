package gorm

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	tx "github.com/tigerroll/surfin-etl/pkg/batch/core/tx"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/exception"
)

func newMockDB(t *testing.T, dialect string) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	var dialector gorm.Dialector
	switch dialect {
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true})
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	default:
		t.Fatalf("unknown dialect %s", dialect)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: gorm_logger.Discard})
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		_ = sqlDB.Close()
	})
	return gormDB, mock
}

func answerMappings() []tx.Mapping {
	return []tx.Mapping{
		{"score": 1, "answer": "yes"},
		{"answer": "no", "score": 2},
	}
}

func TestBulkInsertMappings_MySQLReturnsSequentialKeys(t *testing.T) {
	db, mock := newMockDB(t, "mysql")
	mock.ExpectExec("INSERT INTO `response_events` (`answer`,`score`) VALUES (?,?),(?,?)").
		WithArgs("yes", 1, "no", 2).
		WillReturnResult(sqlmock.NewResult(41, 2))
	mock.ExpectQuery("SELECT LAST_INSERT_ID()").
		WillReturnRows(sqlmock.NewRows([]string{"LAST_INSERT_ID()"}).AddRow(41))

	mappings := answerMappings()
	uow := NewGormTxAdapter(db)
	require.NoError(t, uow.BulkInsertMappings(context.Background(), "response_events", mappings, true))

	assert.Equal(t, int64(41), mappings[0]["id"])
	assert.Equal(t, int64(42), mappings[1]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertMappings_WithoutReturnDefaults(t *testing.T) {
	db, mock := newMockDB(t, "mysql")
	mock.ExpectExec("INSERT INTO `response_events` (`answer`,`score`) VALUES (?,?),(?,?)").
		WithArgs("yes", 1, "no", 2).
		WillReturnResult(sqlmock.NewResult(0, 2))

	mappings := answerMappings()
	require.NoError(t, NewGormTxAdapter(db).BulkInsertMappings(context.Background(), "response_events", mappings, false))

	for _, m := range mappings {
		assert.NotContains(t, m, "id")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertMappings_SplitsRunsByColumnSet(t *testing.T) {
	db, mock := newMockDB(t, "mysql")
	mock.ExpectExec("INSERT INTO `response_events` (`answer`,`score`) VALUES (?,?)").
		WithArgs("yes", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `response_events` (`answer`) VALUES (?),(?)").
		WithArgs("maybe", "later").
		WillReturnResult(sqlmock.NewResult(0, 2))

	mappings := []tx.Mapping{
		{"answer": "yes", "score": 1},
		{"answer": "maybe"},
		{"answer": "later"},
	}
	require.NoError(t, NewGormTxAdapter(db).BulkInsertMappings(context.Background(), "response_events", mappings, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertMappings_MySQLKeepsExplicitKeys(t *testing.T) {
	db, mock := newMockDB(t, "mysql")
	mock.ExpectExec("INSERT INTO `response_events` (`answer`,`id`) VALUES (?,?),(?,?)").
		WithArgs("yes", int64(5), "no", int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO `response_events` (`answer`) VALUES (?)").
		WithArgs("maybe").
		WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectQuery("SELECT LAST_INSERT_ID()").
		WillReturnRows(sqlmock.NewRows([]string{"LAST_INSERT_ID()"}).AddRow(101))

	mappings := []tx.Mapping{
		{"answer": "yes", "id": int64(5)},
		{"answer": "no", "id": int64(100)},
		{"answer": "maybe"},
	}
	require.NoError(t, NewGormTxAdapter(db).BulkInsertMappings(context.Background(), "response_events", mappings, true))

	assert.Equal(t, int64(5), mappings[0]["id"])
	assert.Equal(t, int64(100), mappings[1]["id"])
	assert.Equal(t, int64(101), mappings[2]["id"])
	assert.NoError(t, mock.ExpectationsWereMet(), "no LAST_INSERT_ID() is read for rows with explicit keys")
}

func TestBulkInsertMappings_EngineErrorIsReturned(t *testing.T) {
	db, mock := newMockDB(t, "mysql")
	dbErr := errors.New("Error 1062: Duplicate entry '1' for key 'PRIMARY'")
	mock.ExpectExec("INSERT INTO `response_events` (`answer`,`score`) VALUES (?,?),(?,?)").
		WillReturnError(dbErr)

	err := NewGormTxAdapter(db).BulkInsertMappings(context.Background(), "response_events", answerMappings(), true)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertMappings_PostgresReturning(t *testing.T) {
	db, mock := newMockDB(t, "postgres")
	mock.ExpectQuery(`INSERT INTO "response_events" ("answer","score") VALUES ($1,$2),($3,$4) RETURNING "event_id"`).
		WithArgs("yes", 1, "no", 2).
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow(7).AddRow(9))

	mappings := answerMappings()
	uow := NewGormTxAdapter(db, WithKeyColumn("event_id"))
	require.NoError(t, uow.BulkInsertMappings(context.Background(), "response_events", mappings, true))

	assert.Equal(t, int64(7), mappings[0]["event_id"])
	assert.Equal(t, int64(9), mappings[1]["event_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertMappings_PostgresKeyCountMismatch(t *testing.T) {
	db, mock := newMockDB(t, "postgres")
	mock.ExpectQuery(`INSERT INTO "response_events" ("answer","score") VALUES ($1,$2),($3,$4) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := NewGormTxAdapter(db).BulkInsertMappings(context.Background(), "response_events", answerMappings(), true)
	assert.ErrorIs(t, err, ErrGeneratedKeys)
}

func TestBulkInsertMappings_Validation(t *testing.T) {
	db, mock := newMockDB(t, "mysql")
	uow := NewGormTxAdapter(db)
	ctx := context.Background()

	assert.NoError(t, uow.BulkInsertMappings(ctx, "response_events", nil, true), "nothing to insert")

	err := uow.BulkInsertMappings(ctx, "", answerMappings(), false)
	assert.Equal(t, moduleName, exception.ModuleOf(err))

	err = uow.BulkInsertMappings(ctx, "response_events", []tx.Mapping{{}}, false)
	assert.True(t, exception.IsBatchError(err))

	assert.NoError(t, mock.ExpectationsWereMet(), "no statement may reach the database")
}

func TestStage_RejectsNonStructPointers(t *testing.T) {
	uow := NewGormTxAdapter(nil)
	ctx := context.Background()

	var nilEvent *struct{ ID int64 }
	for _, bad := range []interface{}{nil, struct{}{}, nilEvent, new(int), []int{1}} {
		err := uow.Stage(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidEntity, "%T", bad)
	}
	assert.Zero(t, uow.Staged())

	require.NoError(t, uow.Stage(ctx, &struct{ ID int64 }{}))
	assert.Equal(t, 1, uow.Staged())
}

func TestIsTableNotExistError(t *testing.T) {
	assert.True(t, isTableNotExistError(errors.New(`ERROR: relation "response_events" does not exist (SQLSTATE 42P01)`)))
	assert.True(t, isTableNotExistError(errors.New("Error 1146 (42S02): Table 'etl.response_events' doesn't exist")))
	assert.True(t, isTableNotExistError(errors.New("no such table: response_events")))
	assert.False(t, isTableNotExistError(sql.ErrNoRows))
	assert.False(t, isTableNotExistError(nil))
}
