package scanserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const probeTimeout = 10 * time.Second

// ProbeResult describes a reachable scan server
type ProbeResult struct {
	URL        string
	PhotoCount int
	Latency    time.Duration
}

// Probe checks that serverURL answers the photo list endpoint with a
// well-formed body. It is used before saving a new server address.
func Probe(ctx context.Context, serverURL string, logger *slog.Logger) (ProbeResult, error) {
	client := NewClient(serverURL, probeTimeout, logger)

	start := time.Now()
	res := client.ListPhotos(ctx)
	if !res.OK() {
		return ProbeResult{}, fmt.Errorf("probe %s: %w", client.BaseURL(), res.Err)
	}

	return ProbeResult{
		URL:        client.BaseURL(),
		PhotoCount: len(res.Photos),
		Latency:    time.Since(start),
	}, nil
}
