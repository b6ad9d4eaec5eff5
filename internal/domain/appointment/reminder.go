package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/domain/client"
	"github.com/praxis/praxis/internal/platform/notification"
)

// ClientDirectory resolves the client an appointment belongs to. Satisfied by
// client.Service.
type ClientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

// ReminderSender sends templated notifications. Satisfied by
// notification.NotificationManager.
type ReminderSender interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// ReminderScheduler sweeps upcoming appointments and emails the client a
// reminder once per appointment.
type ReminderScheduler struct {
	appointments Repository
	clients      ClientDirectory
	sender       ReminderSender
	window       time.Duration
	logger       zerolog.Logger
}

func NewReminderScheduler(appointments Repository, clients ClientDirectory,
	sender ReminderSender, window time.Duration, logger zerolog.Logger) *ReminderScheduler {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ReminderScheduler{
		appointments: appointments,
		clients:      clients,
		sender:       sender,
		window:       window,
		logger:       logger,
	}
}

// Register wires the sweep into the cron runner under the given spec.
func (s *ReminderScheduler) Register(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		if _, err := s.SendDue(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("reminder sweep failed")
		}
	})
	return err
}

// SendDue sends reminders for appointments starting inside the window and
// returns how many went out. A failure on one appointment never stops the
// sweep.
func (s *ReminderScheduler) SendDue(ctx context.Context) (int, error) {
	due, err := s.appointments.ListDueReminders(ctx, time.Now().UTC(), s.window)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range due {
		cl, err := s.clients.Get(ctx, a.ClientID)
		if err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("client lookup failed")
			continue
		}
		if cl.Email == nil || *cl.Email == "" {
			continue
		}

		data := map[string]string{
			"client_name": cl.FirstName + " " + cl.LastName,
			"date":        a.StartsAt.Format("Monday, 2 January 2006"),
			"time":        a.StartsAt.Format("15:04"),
		}
		if _, err := s.sender.SendFromTemplate(ctx, "appointment-reminder", data, *cl.Email); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("reminder send failed")
			continue
		}
		if err := s.appointments.MarkReminderSent(ctx, a.ID); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("reminder flag update failed")
			continue
		}
		sent++
	}
	return sent, nil
}
