package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReconcileJobName is the name of the invoice link reconciliation job
const ReconcileJobName = "invoice_link_reconcile"

// InvoiceReconciler repairs leads whose invoice back-link write was lost.
type InvoiceReconciler interface {
	ReconcileLeadLinks(ctx context.Context) (int, error)
}

// ReconcileJob periodically repairs missing lead-to-invoice back-links left
// behind when the link write after invoice creation failed.
type ReconcileJob struct {
	invoices InvoiceReconciler
	logger   *zap.Logger
	timeout  time.Duration
}

// NewReconcileJob creates a new reconciliation job.
func NewReconcileJob(invoices InvoiceReconciler, logger *zap.Logger, timeout time.Duration) *ReconcileJob {
	return &ReconcileJob{
		invoices: invoices,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run executes the reconciliation job.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	repaired, err := j.invoices.ReconcileLeadLinks(ctx)
	if err != nil {
		j.logger.Error("invoice link reconciliation failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if repaired > 0 {
		j.logger.Info("invoice link reconciliation completed",
			zap.Int("repaired", repaired),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterReconcileJob registers the reconciliation job with the scheduler.
func RegisterReconcileJob(scheduler *Scheduler, invoices InvoiceReconciler, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewReconcileJob(invoices, logger, timeout)
	return scheduler.AddJob(ReconcileJobName, cronExpr, job.Run)
}
