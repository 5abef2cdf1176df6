// Package ingest walks a GeoLife dataset tree and loads it into a
// storage gateway. User directories are processed by a bounded worker
// pool; files inside one user are handled sequentially so the per-user
// label set is loaded once.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/geolife"
	"github.com/banshee-data/trajectory.report/internal/store"
)

// Summary tallies what one ingestion run did. All fields are updated
// atomically so workers can share a single instance.
type Summary struct {
	UsersCreated   atomic.Int64
	UsersExisting  atomic.Int64
	Activities     atomic.Int64
	TrackPoints    atomic.Int64
	SkippedSize    atomic.Int64
	SkippedParse   atomic.Int64
	SkippedEmpty   atomic.Int64
	SkippedDup     atomic.Int64
	LabelsMissing  atomic.Int64
	LabelsBad      atomic.Int64
	LabelIntervals atomic.Int64
}

// String renders the summary in one log-friendly line.
func (s *Summary) String() string {
	return fmt.Sprintf(
		"users=%d (existing=%d) activities=%d trackpoints=%d skipped: size=%d parse=%d empty=%d duplicate=%d labels: missing=%d malformed=%d intervals=%d",
		s.UsersCreated.Load(), s.UsersExisting.Load(),
		s.Activities.Load(), s.TrackPoints.Load(),
		s.SkippedSize.Load(), s.SkippedParse.Load(),
		s.SkippedEmpty.Load(), s.SkippedDup.Load(),
		s.LabelsMissing.Load(), s.LabelsBad.Load(), s.LabelIntervals.Load(),
	)
}

// Ingester drives the dataset load.
type Ingester struct {
	cfg     *config.Config
	store   store.Store
	cleaner geolife.Cleaner
}

// New builds an Ingester over the given store.
func New(cfg *config.Config, st store.Store) *Ingester {
	return &Ingester{
		cfg:   cfg,
		store: st,
		cleaner: geolife.Cleaner{
			MaxRawLines:       cfg.MaxRawLines,
			AltitudeFloorFeet: cfg.AltitudeFloorFeet,
			AltitudeInvalid:   cfg.AltitudeInvalid,
		},
	}
}

// Run ingests every user directory under the configured data dir.
// Malformed files are logged and skipped; storage failures abort the
// run. Re-running over the same store is safe: duplicate users and
// activities are skipped.
func (ing *Ingester) Run(ctx context.Context) (*Summary, error) {
	users, err := geolife.Walk(ing.cfg.DataDir)
	if err != nil {
		return nil, err
	}

	labeledIDs, err := geolife.LabeledIDs(ing.cfg.DataDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	jobs := make(chan geolife.UserDir)

	workers := ing.cfg.Workers
	if workers > len(users) {
		workers = len(users)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	errOnce := make(chan error, workers)
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if err := ing.ingestUser(workerCtx, user, labeledIDs, summary); err != nil {
					select {
					case errOnce <- err:
					default:
					}
					cancel()
					return
				}
			}
		}()
	}

	for _, user := range users {
		select {
		case jobs <- user:
		case <-workerCtx.Done():
		}
		if workerCtx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errOnce:
		return summary, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	log.Printf("ingestion complete: %s", summary)
	return summary, nil
}

func (ing *Ingester) ingestUser(ctx context.Context, user geolife.UserDir, labeledIDs map[string]bool, summary *Summary) error {
	labels := ing.loadUserLabels(user, summary)
	if labeledIDs[user.ID] && labels.Len() == 0 {
		log.Printf("warning: user %s listed in labeled_ids.txt but has no usable labels", user.ID)
	}

	err := ing.store.CreateUser(ctx, store.User{
		ID:        user.ID,
		HasLabels: labels.Len() > 0,
	})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		summary.UsersExisting.Add(1)
	case err != nil:
		return fmt.Errorf("user %s: %w", user.ID, err)
	default:
		summary.UsersCreated.Add(1)
	}

	for _, path := range user.TrackFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ing.ingestFile(ctx, user.ID, path, labels, summary); err != nil {
			return err
		}
	}
	return nil
}

// loadUserLabels returns the user's label set, degrading to an empty
// set with a warning when labels.txt is malformed.
func (ing *Ingester) loadUserLabels(user geolife.UserDir, summary *Summary) *geolife.LabelSet {
	if user.LabelsPath == "" {
		summary.LabelsMissing.Add(1)
		return geolife.NewLabelSet(nil)
	}
	labels, err := geolife.LoadLabels(user.LabelsPath)
	if err != nil {
		log.Printf("warning: user %s: %v; treating as unlabeled", user.ID, err)
		summary.LabelsBad.Add(1)
		return geolife.NewLabelSet(nil)
	}
	summary.LabelIntervals.Add(int64(labels.Len()))
	return labels
}

func (ing *Ingester) ingestFile(ctx context.Context, userID, path string, labels *geolife.LabelSet, summary *Summary) error {
	lines, err := geolife.CountLines(path)
	if err != nil {
		return err
	}
	if !ing.cleaner.WithinSizeLimit(lines) {
		summary.SkippedSize.Add(1)
		return nil
	}

	points, err := geolife.ParseFile(path, ing.cfg.HeaderLines)
	if err != nil {
		var parseErr *geolife.ParseError
		if errors.As(err, &parseErr) {
			log.Printf("warning: skipping %s: %v", path, parseErr)
			summary.SkippedParse.Add(1)
			return nil
		}
		return err
	}

	cleaned := ing.cleaner.Clean(points)

	activity, trackPoints, err := geolife.BuildActivity(path, userID, cleaned, labels)
	if err != nil {
		var emptyErr *geolife.EmptyActivityError
		if errors.As(err, &emptyErr) {
			summary.SkippedEmpty.Add(1)
			return nil
		}
		return err
	}

	err = ing.store.SaveActivity(ctx, activity, trackPoints)
	if errors.Is(err, store.ErrDuplicate) {
		summary.SkippedDup.Add(1)
		return nil
	}
	if err != nil {
		return fmt.Errorf("file %s: %w", path, err)
	}

	summary.Activities.Add(1)
	summary.TrackPoints.Add(int64(len(trackPoints)))
	return nil
}
