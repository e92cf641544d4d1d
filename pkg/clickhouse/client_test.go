package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithAddr("ch.local", 0),
		WithDatabase("herd"),
		WithCredentials("svc", "pw"),
		WithTimeouts(2*time.Second, 3*time.Second, time.Second),
		WithMaxExecutionTime(30 * time.Second),
		WithAsyncInsert(true, true),
	} {
		opt(cfg)
	}

	assert.Equal(t,
		"clickhouse://svc:pw@ch.local:9000/herd?dial_timeout=2s&read_timeout=3s&max_execution_time=30&async_insert=1&wait_for_async_insert=1",
		cfg.dsn(),
	)
}

func TestBuildDSN_HTTPWithoutParams(t *testing.T) {
	cfg := ClientConfig{Host: "h", Port: 8123, Database: "d", User: "u", UseHTTP: true}
	assert.Equal(t, "clickhouse+http://u:@h:8123/d", cfg.dsn())
}

func TestDSN_EscapesPassword(t *testing.T) {
	cfg := ClientConfig{Host: "h", Port: 9000, Database: "herd", User: "svc", Password: "p@ss/word"}
	assert.Equal(t, "clickhouse://svc:p%40ss%2Fword@h:9000/herd", cfg.dsn())
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, cfg.validate())
	WithAddr("h", 9440)(cfg)
	assert.NoError(t, cfg.validate())
	assert.Equal(t, 9440, cfg.Port)
	cfg.MaxIdleConns = 20
	assert.Error(t, cfg.validate())
}

func TestHerdSchema(t *testing.T) {
	stmts := HerdSchema()
	assert.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "ReplacingMergeTree(ingested_at)")
}
