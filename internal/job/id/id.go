// Package id provides unique identifier generation for jobs.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// seq guarantees process-lifetime uniqueness even when the clock and the
// random source collide across rapid successive calls.
var seq atomic.Uint64

// Generate creates a new unique job ID.
// Format: job-<timestamp>-<sequence>-<random>
// Example: job-1701432000-7-a1b2c3d4
func Generate() string {
	timestamp := time.Now().Unix()
	n := seq.Add(1)
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		// The sequence alone still keeps IDs unique within the process.
		return fmt.Sprintf("job-%d-%d", timestamp, n)
	}
	return fmt.Sprintf("job-%d-%d-%s", timestamp, n, hex.EncodeToString(random))
}
