package scheduler

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Job интерфейс для периодических задач
type Job interface {
	// Name возвращает имя задачи для логов
	Name() string
	// Run выполняет задачу
	Run(ctx context.Context) error
}

// scheduledJob связывает задачу с ее интервалом запуска
type scheduledJob struct {
	job      Job
	interval time.Duration
}

// Scheduler управляет запуском периодических задач.
// Каждая задача работает со своим интервалом в отдельной горутине.
type Scheduler struct {
	logger *zap.Logger
	jobs   []scheduledJob
}

// NewScheduler создает новый планировщик задач
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		jobs:   make([]scheduledJob, 0),
	}
}

// AddJob добавляет задачу с индивидуальным интервалом запуска
func (s *Scheduler) AddJob(job Job, interval time.Duration) {
	s.jobs = append(s.jobs, scheduledJob{job: job, interval: interval})
}

// Start запускает все задачи и блокируется до отмены контекста
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("запуск планировщика задач", zap.Int("jobs_count", len(s.jobs)))

	for _, sj := range s.jobs {
		go s.runLoop(ctx, sj)
	}

	<-ctx.Done()
	s.logger.Info("остановка планировщика задач")
}

// runLoop выполняет задачу по ее интервалу. Первый запуск сдвигается на
// случайную долю интервала, чтобы несколько экземпляров сервиса не
// запускали сверку одновременно.
func (s *Scheduler) runLoop(ctx context.Context, sj scheduledJob) {
	jitter := time.Duration(rand.Int63n(int64(sj.interval/10) + 1))

	select {
	case <-ctx.Done():
		return
	case <-time.After(jitter):
	}

	s.runJob(ctx, sj)

	ticker := time.NewTicker(sj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runJob(ctx, sj)
		}
	}
}

// runJob выполняет одну задачу и логирует результат
func (s *Scheduler) runJob(ctx context.Context, sj scheduledJob) {
	start := time.Now()
	s.logger.Debug("запуск задачи", zap.String("job", sj.job.Name()))

	if err := sj.job.Run(ctx); err != nil {
		s.logger.Error("ошибка выполнения задачи",
			zap.String("job", sj.job.Name()),
			zap.Error(err))
		return
	}

	s.logger.Debug("задача выполнена",
		zap.String("job", sj.job.Name()),
		zap.Duration("duration", time.Since(start)))
}
