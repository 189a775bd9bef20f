package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veilgram/feedsvc/internal/repository"
	"github.com/veilgram/feedsvc/pkg/logger"
)

type replicateAction int

const (
	actionAdd replicateAction = iota + 1
	actionRemove
)

type replicateJob struct {
	action replicateAction
	userID string
	fanID  string
}

// FanReplicator applies follow-graph changes to the redundant fans table
// asynchronously through a bounded queue. A full queue drops the job with a
// warning; the fans table is a derived index, not a source of truth.
type FanReplicator struct {
	fanRepo repository.FanRepository
	ch      chan replicateJob
}

func NewFanReplicator(fanRepo repository.FanRepository, queueSize int) *FanReplicator {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &FanReplicator{fanRepo: fanRepo, ch: make(chan replicateJob, queueSize)}
}

// Start launches the worker goroutines and returns a stop function that
// waits briefly for the queue to drain.
func (r *FanReplicator) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go r.loop(stopCh)
	}
	return func(ctx context.Context) error {
		close(stopCh)
		deadline := time.After(2 * time.Second)
		for {
			select {
			case <-deadline:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
				if len(r.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (r *FanReplicator) loop(stopCh <-chan struct{}) {
	for {
		select {
		case job := <-r.ch:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			var err error
			switch job.action {
			case actionAdd:
				err = r.fanRepo.Create(ctx, job.userID, job.fanID)
			case actionRemove:
				err = r.fanRepo.Delete(ctx, job.userID, job.fanID)
			}
			cancel()
			if err != nil {
				logger.Warn("fan replication failed",
					zap.String("user", job.userID), zap.String("fan", job.fanID), zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}

func (r *FanReplicator) EnqueueAdd(userID, fanID string) {
	select {
	case r.ch <- replicateJob{action: actionAdd, userID: userID, fanID: fanID}:
	default:
		logger.Warn("replicator queue full, drop add", zap.String("user", userID), zap.String("fan", fanID))
	}
}

func (r *FanReplicator) EnqueueRemove(userID, fanID string) {
	select {
	case r.ch <- replicateJob{action: actionRemove, userID: userID, fanID: fanID}:
	default:
		logger.Warn("replicator queue full, drop remove", zap.String("user", userID), zap.String("fan", fanID))
	}
}

// QueueLen samples the current backlog.
func (r *FanReplicator) QueueLen() int { return len(r.ch) }
