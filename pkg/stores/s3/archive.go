package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"queryfanout/pkg/fanout"
	"queryfanout/pkg/services"
)

const archiveTimeout = 30 * time.Second

// objectStore is the slice of Conn the archive needs.
type objectStore interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

/*
Archive persists finished run reports to object storage. It attaches to
the runner as an observer; upload failures are logged and never fail the
run that produced the report.
*/
type Archive struct {
	store objectStore
}

func NewArchive(conn *Conn) *Archive {
	return &Archive{store: conn}
}

func reportKey(runID string) string {
	return fmt.Sprintf("runs/%s/report.json", runID)
}

func snapshotKey(runID, service string) string {
	return fmt.Sprintf("runs/%s/raw/%s.html", runID, service)
}

// SaveReport uploads one run's results as indented JSON under a run id.
func (archive *Archive) SaveReport(
	ctx context.Context, runID string, results []fanout.QueryResult,
) (string, error) {
	payload, err := json.MarshalIndent(results, "", "  ")

	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := reportKey(runID)

	if err := archive.store.Put(ctx, key, payload, "application/json"); err != nil {
		return "", err
	}

	return key, nil
}

// LoadReport fetches a previously archived report by run id.
func (archive *Archive) LoadReport(
	ctx context.Context, runID string,
) ([]fanout.QueryResult, error) {
	payload, err := archive.store.Get(ctx, reportKey(runID))

	if err != nil {
		return nil, err
	}

	var results []fanout.QueryResult

	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return results, nil
}

func (archive *Archive) ServiceStarted(desc services.Descriptor) {}

func (archive *Archive) ServiceFinished(result fanout.QueryResult) {}

func (archive *Archive) RunFinished(results []fanout.QueryResult) {
	if len(results) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	runID := uuid.New().String()
	key, err := archive.SaveReport(ctx, runID, results)

	if err != nil {
		log.Error("failed to archive run report", "error", err)
		return
	}

	for _, result := range results {
		if result.RawHTML == "" {
			continue
		}

		snapshot := snapshotKey(runID, result.Service)

		if err := archive.store.Put(
			ctx, snapshot, []byte(result.RawHTML), "text/html",
		); err != nil {
			log.Error("failed to archive page snapshot",
				"service", result.Service, "error", err)
		}
	}

	log.Info("run report archived", "key", key)
}
