package pipeline_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the package when shard goroutines outlive their batch.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}
