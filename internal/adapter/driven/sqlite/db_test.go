package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("/tmp/history.db", []string{"busy_timeout(5000)", "foreign_keys(ON)"})

	assert.Equal(t, "file:/tmp/history.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%28ON%29", dsn)
}
