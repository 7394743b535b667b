package jobs

import (
	"context"
	"time"

	"github.com/fixpoint-as/repair-api/internal/accounting"
	"go.uber.org/zap"
)

// AccountingExportJobName is the name of the paid invoice export job
const AccountingExportJobName = "accounting_export"

// exportLookback is how far back each run scans for paid invoices. Export
// rows are keyed by invoice number, so overlapping windows are safe.
const exportLookback = 48 * time.Hour

// AccountingExportJob pushes recently paid invoices to the accounting
// database on a schedule.
type AccountingExportJob struct {
	exporter *accounting.Exporter
	logger   *zap.Logger
	timeout  time.Duration
}

// NewAccountingExportJob creates a new export job.
func NewAccountingExportJob(exporter *accounting.Exporter, logger *zap.Logger, timeout time.Duration) *AccountingExportJob {
	return &AccountingExportJob{
		exporter: exporter,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run executes the export job.
func (j *AccountingExportJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	result, err := j.exporter.ExportPaidInvoices(ctx, time.Now().Add(-exportLookback))
	if err != nil {
		j.logger.Error("accounting export failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("accounting export job completed",
		zap.Int("exported", result.Exported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterAccountingExportJob registers the export job with the scheduler.
func RegisterAccountingExportJob(scheduler *Scheduler, exporter *accounting.Exporter, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewAccountingExportJob(exporter, logger, timeout)
	return scheduler.AddJob(AccountingExportJobName, cronExpr, job.Run)
}
