package devserver

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// worker stands in for the backend's generation pipeline: once a second it
// sweeps for generations that have run long enough and moves them to their
// terminal status.
type worker struct {
	cron  *cron.Cron
	store *memStore
	delay time.Duration
	log   *zap.Logger
}

func newWorker(store *memStore, delay time.Duration, log *zap.Logger) *worker {
	return &worker{
		cron:  cron.New(cron.WithSeconds()),
		store: store,
		delay: delay,
		log:   log,
	}
}

func (w *worker) start() {
	_, err := w.cron.AddFunc("* * * * * *", func() {
		for _, id := range w.store.finishDue(w.delay) {
			w.log.Info("generation finished", zap.Int64("project_id", id))
		}
	})
	if err != nil {
		w.log.Error("failed to schedule generation sweep", zap.Error(err))
		return
	}
	w.cron.Start()
}

func (w *worker) stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}
