package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/gymbuddy/internal/telemetry/metrics"
)

type Uploader interface {
	Upload(ctx context.Context, name string, content []byte) (string, error)
}

type userLister interface {
	ListIDs(ctx context.Context) ([]int, error)
}

// Runner exports every user and uploads one file per user per day.
type Runner struct {
	users          userLister
	exporter       exporter
	uploader       Uploader
	metricsManager *metrics.Manager
}

func NewRunner(users userLister, exporter exporter, uploader Uploader, metricsManager *metrics.Manager) *Runner {
	return &Runner{
		users:          users,
		exporter:       exporter,
		uploader:       uploader,
		metricsManager: metricsManager,
	}
}

// Run backs up all users. A failure of one user does not stop the others,
// all failures are returned combined.
func (r *Runner) Run(ctx context.Context, now time.Time) (uploaded int, err error) {
	defer func(begin time.Time) {
		r.metricsManager.HistBackupDuration.Observe(time.Since(begin).Seconds())
	}(time.Now())

	userIDs, err := r.users.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	log.Infof("backup of %d users starting ...", len(userIDs))
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return uploaded, multierr.Append(err, ctx.Err())
		}
		if userErr := r.backupUser(ctx, userID, now); userErr != nil {
			log.Errorf("backup of user %d: %s", userID, userErr)
			r.metricsManager.CounterBackups.WithLabelValues("failed").Inc()
			err = multierr.Append(err, fmt.Errorf("user %d: %w", userID, userErr))
			continue
		}
		r.metricsManager.CounterBackups.WithLabelValues("uploaded").Inc()
		uploaded++
	}
	log.Infof("backup done, %d/%d users uploaded", uploaded, len(userIDs))

	return uploaded, err
}

func (r *Runner) backupUser(ctx context.Context, userID int, now time.Time) error {
	export, err := r.exporter.Export(ctx, userID, now)
	if err != nil {
		return err
	}
	content, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	fileID, err := r.uploader.Upload(ctx, FileName(userID, now), content)
	if err != nil {
		return err
	}
	log.Debugf("user %d backed up to file %s", userID, fileID)
	return nil
}
