// Package notify creates resident notifications: direct messages, broadcasts, and the dues
// reminders sent by admins and by the background worker.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// BroadcastAll addresses every resident.
const BroadcastAll = "all"

const dateLayout = "02.01.2006"

// Store is the persistence the service needs.
type Store interface {
	ListResidents(ctx context.Context) ([]models.Resident, error)
	GetResident(ctx context.Context, id string) (models.Resident, error)
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
}

// Service writes notifications.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Send delivers message to one resident, or to all of them when residentID is "all".
// It returns the number of notifications written.
func (s *Service) Send(ctx context.Context, residentID, message string) (int, error) {
	if strings.EqualFold(residentID, BroadcastAll) {
		residents, err := s.store.ListResidents(ctx)
		if err != nil {
			return 0, fmt.Errorf("list residents: %w", err)
		}
		sent := 0
		for _, r := range residents {
			if err := s.create(ctx, r.ID, message); err != nil {
				return sent, err
			}
			sent++
		}
		return sent, nil
	}

	if _, err := s.store.GetResident(ctx, residentID); err != nil {
		return 0, err
	}
	if err := s.create(ctx, residentID, message); err != nil {
		return 0, err
	}
	return 1, nil
}

// Remind sends a dues reminder to one resident. Settled residents yield ErrAlreadyPaid.
func (s *Service) Remind(ctx context.Context, residentID string) (models.Notification, error) {
	r, err := s.store.GetResident(ctx, residentID)
	if err != nil {
		return models.Notification{}, err
	}
	if !owes(r) {
		return models.Notification{}, storage.ErrAlreadyPaid
	}
	return s.store.CreateNotification(ctx, models.Notification{ResidentID: r.ID, Message: ReminderMessage(r)})
}

// RemindAll sends a dues reminder to every resident who still owes.
func (s *Service) RemindAll(ctx context.Context) (int, error) {
	residents, err := s.store.ListResidents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list residents: %w", err)
	}
	sent := 0
	for _, r := range residents {
		if !owes(r) {
			continue
		}
		if err := s.create(ctx, r.ID, ReminderMessage(r)); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// CheckDues notifies residents whose due date has passed and those due within a day.
func (s *Service) CheckDues(ctx context.Context) (int, error) {
	residents, err := s.store.ListResidents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list residents: %w", err)
	}
	now := s.now()
	sent := 0
	for _, r := range residents {
		if !owes(r) || r.DueDate.IsZero() {
			continue
		}
		var msg string
		switch until := r.DueDate.Sub(now); {
		case until <= 0:
			msg = OverdueMessage(r)
		case until < 24*time.Hour:
			msg = DueSoonMessage(r)
		default:
			continue
		}
		if err := s.create(ctx, r.ID, msg); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (s *Service) create(ctx context.Context, residentID, message string) error {
	if _, err := s.store.CreateNotification(ctx, models.Notification{ResidentID: residentID, Message: message}); err != nil {
		return fmt.Errorf("notify resident %s: %w", residentID, err)
	}
	return nil
}

func owes(r models.Resident) bool {
	return !r.HasPaid && r.AmountDue.IsPositive()
}

// ReminderMessage is the text of a manual dues reminder.
func ReminderMessage(r models.Resident) string {
	return fmt.Sprintf("Sayın %s, %s TL aidat borcunuz bulunmaktadır. Lütfen ödemenizi yapınız.",
		r.FullName(), r.AmountDue.StringFixed(2))
}

// OverdueMessage is sent once the due date has passed.
func OverdueMessage(r models.Resident) string {
	return fmt.Sprintf("Aidat ödemenizin son tarihi (%s) geçti. Kalan borç: %s TL.",
		r.DueDate.Format(dateLayout), r.AmountDue.StringFixed(2))
}

// DueSoonMessage is sent during the last day before the due date.
func DueSoonMessage(r models.Resident) string {
	return fmt.Sprintf("Aidat ödemenizin son günü yarın (%s). Tutar: %s TL.",
		r.DueDate.Format(dateLayout), r.AmountDue.StringFixed(2))
}
