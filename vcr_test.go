package krakengo

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/dnaeon/go-vcr.v4/pkg/recorder"
)

// TestSpotClientReplaysRecordedCassette drives the record/replay cycle end
// to end: one recorder captures a round trip against a local test server,
// then a second recorder replays the same cassette after the server is
// gone, proving the client never touches the network on replay.
func TestSpotClientReplaysRecordedCassette(t *testing.T) {
	srv := newTestSpotServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":[],"result":{"unixtime":1700000000,"rfc1123":"Tue, 14 Nov 23 22:13:20 +0000"}}`))
	})

	cassette := filepath.Join(t.TempDir(), "server_time")

	origTransport := http.DefaultTransport
	t.Cleanup(func() { http.DefaultTransport = origTransport })

	rec, err := recorder.New(cassette, recorder.WithMode(recorder.ModeRecordOnly))
	require.NoError(t, err)
	http.DefaultTransport = rec

	client := NewSpotClient(srv.URL, nil, nil)
	recorded, err := client.GetServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), recorded.Unixtime)
	require.NoError(t, rec.Stop())

	srv.Close()

	replay, err := recorder.New(cassette, recorder.WithMode(recorder.ModeReplayOnly))
	require.NoError(t, err)
	http.DefaultTransport = replay
	defer replay.Stop()

	replayed, err := client.GetServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recorded.Unixtime, replayed.Unixtime)
}
