package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type ScheduledTask struct {
	name    string
	cronID  cron.EntryID
	cron    *cron.Cron
	cancel  chan struct{}
	logger  *logrus.Logger
	timeout time.Duration
	run     func(ctx context.Context) error
}

// NewScheduledTask starts taskFunc on cronSpec (standard five field syntax or
// descriptors such as @daily). Overlapping runs are skipped and each run is
// bounded by timeout.
func NewScheduledTask(name, cronSpec string, timeout time.Duration, logger *logrus.Logger, taskFunc func(ctx context.Context) error) (*ScheduledTask, error) {
	cronLogger := cronLogger{logger.WithField("task", name)}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	task := &ScheduledTask{
		name:    name,
		cron:    c,
		cancel:  make(chan struct{}),
		logger:  logger,
		timeout: timeout,
		run:     taskFunc,
	}

	id, err := c.AddFunc(cronSpec, func() {
		select {
		case <-task.cancel:
			return
		default:
			task.runOnce()
		}
	})
	if err != nil {
		return nil, err
	}

	task.cronID = id
	c.Start()
	return task, nil
}

func (s *ScheduledTask) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry := s.logger.WithField("task", s.name)
	start := time.Now()
	if err := s.run(ctx); err != nil {
		entry.WithError(err).Error("Scheduled task failed")
		return
	}
	entry.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Scheduled task finished")
}

// Next is the time of the upcoming run.
func (s *ScheduledTask) Next() time.Time {
	return s.cron.Entry(s.cronID).Next
}

// Cancel removes the task and waits for a run in progress to finish.
func (s *ScheduledTask) Cancel() {
	s.cron.Remove(s.cronID)
	close(s.cancel)
	<-s.cron.Stop().Done()
}

// cronLogger routes the cron library's own messages through logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			f[key] = keysAndValues[i+1]
		}
	}
	return f
}
