package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestScheduleDeliveryPastIsImmediate(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	token, err := s.ScheduleDelivery(TypeEvent, Data{"name": S("launch")}, nil, time.Now().Add(-time.Hour), nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if s.QueueSize() != 1 {
		t.Fatalf("past send time must enqueue immediately; queue=%d", s.QueueSize())
	}
	if s.PendingSchedules() != 0 {
		t.Fatalf("no timer should be armed for a past send time")
	}
	if strings.HasPrefix(token, "at:") {
		t.Fatalf("immediate delivery should return a job id, got %q", token)
	}
}

func TestScheduleDeliveryFutureFires(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	token, err := s.ScheduleDelivery(TypeEvent, Data{"name": S("later")}, nil, time.Now().Add(30*time.Millisecond), nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !strings.HasPrefix(token, "at:") {
		t.Fatalf("expected schedule token, got %q", token)
	}
	if s.QueueSize() != 0 {
		t.Fatalf("future delivery must not enqueue yet")
	}
	if s.PendingSchedules() != 1 {
		t.Fatalf("expected one armed timer")
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.QueueSize() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.QueueSize() != 1 {
		t.Fatalf("scheduled job never arrived in the queue")
	}
	if s.PendingSchedules() != 0 {
		t.Fatalf("fired timer should be disarmed")
	}
}

func TestScheduleDeliveryUnknownType(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	if _, err := s.ScheduleDelivery("ghost", Data{}, nil, time.Now().Add(time.Hour), nil); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestCancelScheduled(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	token, err := s.ScheduleDelivery(TypeEvent, Data{"name": S("never")}, nil, time.Now().Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !s.CancelScheduled(token) {
		t.Fatalf("cancel should report true for an armed timer")
	}
	if s.CancelScheduled(token) {
		t.Fatalf("double cancel should report false")
	}
	if s.PendingSchedules() != 0 {
		t.Fatalf("cancelled timer still armed")
	}
}

func TestScheduleRecurringBadSpec(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	if _, err := s.ScheduleRecurring(TypeEvent, Data{}, nil, "not a cron spec", nil); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}

func TestScheduleRecurringFires(t *testing.T) {
	s := newTestService(t, nil, nil, nil)
	s.Start(nil)
	defer s.Stop(nil)

	token, err := s.ScheduleRecurring(TypeEvent, Data{"name": S("tick")}, nil, "@every 20ms", nil)
	if err != nil {
		t.Fatalf("schedule recurring: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.QueueSize() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.QueueSize() == 0 {
		t.Fatalf("recurring schedule never fired")
	}
	if !s.CancelScheduled(token) {
		t.Fatalf("cancel of recurring schedule should report true")
	}
}
