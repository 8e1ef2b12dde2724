package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" sweeper/operation ": "sweeper_operation",
		"foo..bar":            "foo.bar",
		"multi  space":        "multi__space",
		".":                   "",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), "input %q", input)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " sweeper "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	assert.Equal(t, "|#env:stage,result:success,service:sweeper", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
	assert.Equal(t, map[string]string{"env": "prod", " service ": " sweeper "}, global, "inputs are not modified")
}

func TestClientFormat(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "mmk", tags: map[string]string{"store": "redis"}}
	assert.Equal(t,
		"mmk.sweeper.operation_duration:12.5|ms|#operation:purge-garbage,store:redis",
		c.format("sweeper.operation_duration", "12.5", "ms", map[string]string{"operation": "purge-garbage"}),
	)
	assert.Empty(t, c.format(" ", "1", "c", nil))

	bare := &Client{}
	assert.Equal(t, "sweeper.tick_skipped:1|c", bare.format("sweeper.tick_skipped", "1", "c", nil))
}

func TestClientWritesLines(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{
		Address:    pc.LocalAddr().String(),
		Prefix:     " mmk. ",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	defer client.Close()

	client.Count("sweeper.jobs_deleted", 3, map[string]string{"operation": "delete-failed"})
	client.Timing("sweeper.operation_duration", 1500*time.Microsecond, nil)

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "mmk.sweeper.jobs_deleted:3|c|#env:test,operation:delete-failed", string(buf[:n]))

	n, _, err = pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "mmk.sweeper.operation_duration:1.5|ms|#env:test", string(buf[:n]))
}

func TestClientClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	assert.NotPanics(t, func() { client.Count("after.close", 1, nil) })

	var nilClient *Client
	assert.NoError(t, nilClient.Close())
	assert.NotPanics(t, func() { nilClient.Gauge("nil.client", 1, nil) })
}

func TestNewClientErrors(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Address: "   "})
	require.ErrorContains(t, err, "address is required")

	_, err = NewClient(Config{Address: "bad address"})
	require.ErrorContains(t, err, "statsd dial")

	_, err = NewClient(Config{Network: "tcp", Address: "127.0.0.1:8125"})
	require.ErrorContains(t, err, "not supported")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		Discard.Count("a", 1, nil)
		Discard.Gauge("b", 1, nil)
		Discard.Timing("c", time.Second, nil)
	})
}
