package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/atosab2b/catalog-export/internal/email"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TableBackupper dumps the reference tables to spreadsheet files.
type TableBackupper interface {
	BackupTables(ctx context.Context, dir string) ([]string, error)
}

type Scheduler struct {
	cron            *cron.Cron
	service         TableBackupper
	logger          *zap.Logger
	email           email.Email
	alertRecipients []string
	backupDir       string
}

func NewScheduler(service TableBackupper, logger *zap.Logger, e email.Email, alertRecipients []string, backupDir string) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithSeconds()),
		service:         service,
		logger:          logger,
		email:           e,
		alertRecipients: alertRecipients,
		backupDir:       backupDir,
	}
}

// Start registers the nightly table backup job.
// cronExpr uses 6 fields: seconds, minutes, hours, day of month, month, day of week
// Example: "0 0 3 * * *" runs at 3:00 AM every day
func (s *Scheduler) Start(cronExpr string) error {
	_, err := s.cron.AddFunc(cronExpr, s.runBackupJob)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("cron_expression", cronExpr))

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runBackupJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	paths, err := s.service.BackupTables(ctx, s.backupDir)
	if err != nil {
		s.logger.Error("table backup failed", zap.Error(err))
		s.sendAlert(err)
		return
	}

	s.logger.Info("table backup finished",
		zap.Strings("files", paths),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) sendAlert(cause error) {
	if s.email == nil || len(s.alertRecipients) == 0 {
		return
	}

	subject := "Fallo en el backup de tablas"
	text := fmt.Sprintf("El backup de las tablas de grupos/orden ha fallado: %v", cause)
	html := fmt.Sprintf("<p>El backup de las tablas de grupos/orden ha fallado:</p><pre>%v</pre>", cause)

	if err := s.email.Send(subject, text, html, s.alertRecipients); err != nil {
		s.logger.Error("failed to send backup alert", zap.Error(err))
	}
}
