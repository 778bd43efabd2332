package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/model"
)

// ensureCheckpoint downloads the model checkpoint to path unless it already
// exists. The file only appears once the download is complete.
func ensureCheckpoint(ctx context.Context, client *http.Client, path, url string, log logrus.FieldLogger) error {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return nil
	}
	if url == "" {
		return fmt.Errorf("%w: checkpoint %s is missing and no checkpoint url is configured", model.ErrNotFound, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	log.WithField("url", url).Infof("downloading checkpoint to %s", path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid checkpoint url: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download checkpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download checkpoint: %s", resp.Status)
	}
	if err := atomic.WriteFile(path, resp.Body); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}
