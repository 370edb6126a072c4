package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dbconfig "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/surfin-etl/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/surfin-etl/pkg/batch/core/config"
)

func TestConnectionString(t *testing.T) {
	p := &SQLiteDBProvider{}
	assert.Equal(t, "/var/lib/etl/events.db", p.ConnectionString(dbconfig.DatabaseConfig{Database: "/var/lib/etl/events.db"}))
	assert.Equal(t, "file::memory:?cache=shared", p.ConnectionString(dbconfig.DatabaseConfig{Database: "file::memory:?cache=shared"}))
}

func TestRegisteredDialector(t *testing.T) {
	factory, err := gormadapter.GetDialectorFactory("sqlite")
	assert.NoError(t, err)

	_, err = factory(dbconfig.DatabaseConfig{Type: "sqlite"})
	assert.Error(t, err, "an empty path is rejected")

	d, err := factory(dbconfig.DatabaseConfig{Type: "sqlite", Database: "events.db"})
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}

func TestNewProvider(t *testing.T) {
	assert.Equal(t, "sqlite", NewProvider(config.NewConfig()).Type())
}
