package counseling

import (
	"errors"
	"testing"
	"time"
)

func TestPatientDashboardBuckets(t *testing.T) {
	f := newFixture(t)
	past := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	upcoming := f.book(f.patient.ID, f.slot(f.counselor.ID, 5*time.Hour))
	f.now = f.now.Add(2 * time.Hour)

	d, err := f.engine.PatientDashboard(testCtx, f.patient.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(d.Bookings))
	}
	if len(d.Upcoming) != 1 || d.Upcoming[0].ID != upcoming.ID {
		t.Fatalf("unexpected upcoming bookings %+v", d.Upcoming)
	}
	if len(d.Past) != 1 || d.Past[0].ID != past.ID {
		t.Fatalf("unexpected past bookings %+v", d.Past)
	}
}

func TestCounselorDashboard(t *testing.T) {
	f := newFixture(t)
	f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))
	f.slot(f.counselor.ID, 2*time.Hour)
	f.book(f.patient.ID, f.slot(f.counselor.ID, 48*time.Hour))

	d, err := f.engine.CounselorDashboard(testCtx, f.counselor.UserID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.UpcomingSlots) != 3 {
		t.Fatalf("expected 3 upcoming slots, got %d", len(d.UpcomingSlots))
	}
	if len(d.Pending) != 2 {
		t.Fatalf("expected 2 pending bookings, got %d", len(d.Pending))
	}
	if len(d.Today) != 1 {
		t.Fatalf("expected 1 booking today, got %d", len(d.Today))
	}

	if _, err := f.engine.CounselorDashboard(testCtx, f.patient.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-counselor, got %v", err)
	}
}
