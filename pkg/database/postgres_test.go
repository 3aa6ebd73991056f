package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-records-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:             "db",
		Port:             5432,
		User:             "records",
		Password:         `it's a secret`,
		Name:             "school_records",
		SSLMode:          "disable",
		StatementTimeout: 15 * time.Second,
	})
	assert.Equal(t, `host=db port=5432 user=records password='it\'s a secret' dbname=school_records sslmode=disable application_name=sma-records-api statement_timeout=15000`, dsn)
}

func TestDSNSkipsEmptyValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "records"})
	assert.Equal(t, "host=localhost port=5432 dbname=records application_name=sma-records-api", dsn)
}
