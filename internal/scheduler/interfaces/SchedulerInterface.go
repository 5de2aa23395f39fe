package interfaces

import (
	"context"
	"time"
)

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
	RunReconcile(ctx context.Context) error
	RunWeather(ctx context.Context) bool
	RunBackup(now time.Time) (string, error)
}
