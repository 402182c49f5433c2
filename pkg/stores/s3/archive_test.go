package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryfanout/pkg/fanout"
)

type memoryStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (store *memoryStore) Put(
	ctx context.Context, key string, payload []byte, contentType string,
) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.objects[key] = append([]byte(nil), payload...)
	store.contentTypes[key] = contentType
	return nil
}

func (store *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	payload, ok := store.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object at %s", key)
	}
	return payload, nil
}

func TestReportKey(t *testing.T) {
	key := reportKey("0b6f1422-2a39-4b9e-8c4e-7bd1272b2a6f")

	assert.Equal(t, "runs/0b6f1422-2a39-4b9e-8c4e-7bd1272b2a6f/report.json", key)
}

func TestSnapshotKey(t *testing.T) {
	key := snapshotKey("0b6f1422-2a39-4b9e-8c4e-7bd1272b2a6f", "chatgpt")

	assert.Equal(
		t, "runs/0b6f1422-2a39-4b9e-8c4e-7bd1272b2a6f/raw/chatgpt.html", key,
	)
}

func TestReportRoundTrip(t *testing.T) {
	store := newMemoryStore()
	archive := &Archive{store: store}

	saved := []fanout.QueryResult{
		{Service: "chatgpt", Query: "what is Go", Success: true},
		{Service: "perplexity", Query: "what is Go", Error: "query submission failed"},
	}

	key, err := archive.SaveReport(context.Background(), "run-1", saved)
	require.NoError(t, err)
	assert.Equal(t, "runs/run-1/report.json", key)
	assert.Equal(t, "application/json", store.contentTypes[key])

	loaded, err := archive.LoadReport(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestLoadReportMissingRun(t *testing.T) {
	archive := &Archive{store: newMemoryStore()}

	_, err := archive.LoadReport(context.Background(), "run-404")

	assert.Error(t, err)
}

func TestRunFinishedArchivesSnapshots(t *testing.T) {
	store := newMemoryStore()
	archive := &Archive{store: store}

	archive.RunFinished([]fanout.QueryResult{
		{Service: "chatgpt", Success: true, RawHTML: "<html>answer</html>"},
		{Service: "perplexity", Success: false},
	})

	require.Len(t, store.objects, 2)

	var report, snapshot string
	for key := range store.objects {
		if strings.HasSuffix(key, ".json") {
			report = key
		} else {
			snapshot = key
		}
	}

	assert.Contains(t, report, "/report.json")
	assert.Contains(t, snapshot, "/raw/chatgpt.html")
	assert.Equal(t, "text/html", store.contentTypes[snapshot])
	assert.Equal(t, []byte("<html>answer</html>"), store.objects[snapshot])
}

func TestNewConnRejectsBadEndpoint(t *testing.T) {
	_, err := NewConn(ConnOptions{
		Endpoint:  "http://not a host",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "fanout",
	})

	assert.Error(t, err)
}
