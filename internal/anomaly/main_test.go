package anomaly

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies the streaming pipeline's line-feeding goroutines
// (lineindex.Analyze feeds LineInput over a channel from a separate
// goroutine) never leak across tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
