package scheduler

import (
	"context"
	"fmt"

	"promo-pulse/internal/referral"

	"go.uber.org/zap"
)

// ReconcileJob сверяет накопленные комиссии рефералов с суммами
// комиссий их подписавшихся пользователей
type ReconcileJob struct {
	referralService *referral.Service
	logger          *zap.Logger
}

// NewReconcileJob создает задачу сверки комиссий
func NewReconcileJob(referralService *referral.Service, logger *zap.Logger) *ReconcileJob {
	return &ReconcileJob{
		referralService: referralService,
		logger:          logger,
	}
}

// Name возвращает имя задачи
func (j *ReconcileJob) Name() string {
	return "commission_reconcile"
}

// Run выполняет сверку комиссий
func (j *ReconcileJob) Run(ctx context.Context) error {
	corrected, err := j.referralService.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("ошибка сверки комиссий: %w", err)
	}

	if corrected > 0 {
		j.logger.Warn("сверка комиссий устранила расхождения", zap.Int("corrected", corrected))
	} else {
		j.logger.Info("сверка комиссий завершена без расхождений")
	}

	return nil
}
