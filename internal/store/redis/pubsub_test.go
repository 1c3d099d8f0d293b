package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamChannel(t *testing.T) {
	assert.Equal(t, "stream:abc-123", StreamChannel("abc-123"))
}

func TestSnapshotChannel(t *testing.T) {
	assert.Equal(t, "snapshot:abc-123", SnapshotChannel("abc-123"))
}

func TestChannelNamesDoNotCollide(t *testing.T) {
	// The two feeds for one session must land on distinct channels so a
	// stream subscriber never receives snapshot payloads.
	assert.NotEqual(t, StreamChannel("s1"), SnapshotChannel("s1"))
}
