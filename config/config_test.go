package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORAGE_DRIVER", "MINIMUM_AGE", "PASSWORD_HASHING", "RABBITMQ_URL", "ELASTICSEARCH_ADDRS", "DB_MAX_CONN_LIFETIME"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.True(t, c.UsePostgres())
	assert.Equal(t, 18, c.MinimumAge)
	assert.Equal(t, "none", c.PasswordHashing)
	assert.Empty(t, c.RabbitMQURL)
	assert.Empty(t, c.ESAddrs())
	assert.Equal(t, time.Hour, c.DBMaxConnLife)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("MINIMUM_AGE", "21")
	t.Setenv("PASSWORD_HASHING", "BCRYPT")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es1:9200, ,http://es2:9200")
	t.Setenv("DB_MAX_CONN_LIFETIME", "30m")
	t.Setenv("DEBUG_METRICS_ENABLED", "nope")

	c := Load()
	assert.False(t, c.UsePostgres())
	assert.Equal(t, 21, c.MinimumAge)
	assert.Equal(t, "bcrypt", c.PasswordHashing)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, c.ESAddrs())
	assert.Equal(t, 30*time.Minute, c.DBMaxConnLife)
	assert.True(t, c.DebugMetricsEnabled, "invalid booleans fall back to the default")
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{DBUser: "app", DBPassword: "pw", DBHost: "db", DBPort: "5432", DBName: "users", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://app:pw@db:5432/users?sslmode=disable", c.PostgresDSN())
}
