package counseling

import (
	"errors"
	"testing"
	"time"

	"sisterhood-backend/cache"
	models "sisterhood-backend/models/counseling"
	"sisterhood-backend/models/users"
)

func ratingPtr(v float64) *float64 { return &v }

func TestListCounselorsFiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	f.db.Model(&f.counselor).Update("rating", 4.2)
	top := f.profile("top@example.com", "LIC-2", func(p *models.CounselorProfile) {
		p.FullName = "Dr. Kavya Menon"
		p.Specialization = "Trauma & PTSD"
		p.Rating = ratingPtr(4.9)
	})
	unrated := f.profile("unrated@example.com", "LIC-3", func(p *models.CounselorProfile) {
		p.Specialization = "Career stress"
		p.Bio = "Helps with burnout"
	})
	f.profile("hidden@example.com", "LIC-4", func(p *models.CounselorProfile) {
		p.Verified = false
		p.Rating = ratingPtr(5)
	})

	all, err := f.engine.ListCounselors(testCtx, DirectoryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []uint{top.ID, f.counselor.ID, unrated.ID}
	if len(all) != len(want) {
		t.Fatalf("expected %d counselors, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Fatalf("position %d: expected %d, got %d", i, id, all[i].ID)
		}
	}

	bySpec, _ := f.engine.ListCounselors(testCtx, DirectoryFilter{Specialization: "trauma"})
	if len(bySpec) != 1 || bySpec[0].ID != top.ID {
		t.Fatalf("expected specialization filter to match top counselor, got %d results", len(bySpec))
	}
	byRating, _ := f.engine.ListCounselors(testCtx, DirectoryFilter{MinRating: ratingPtr(4.5)})
	if len(byRating) != 1 || byRating[0].ID != top.ID {
		t.Fatalf("expected rating filter to match top counselor, got %d results", len(byRating))
	}
	bySearch, _ := f.engine.ListCounselors(testCtx, DirectoryFilter{Search: "BURNOUT"})
	if len(bySearch) != 1 || bySearch[0].ID != unrated.ID {
		t.Fatalf("expected search to match bio, got %d results", len(bySearch))
	}
}

func TestDirectoryCacheInvalidatedByFeedback(t *testing.T) {
	f := newFixture(t, WithCache(cache.NewMemory(), time.Hour))
	b := f.book(f.patient.ID, f.slot(f.counselor.ID, time.Hour))

	first, err := f.engine.ListCounselors(testCtx, DirectoryFilter{})
	if err != nil || len(first) != 1 || first[0].Rating != nil {
		t.Fatalf("expected one unrated counselor, got %v %v", first, err)
	}

	f.now = f.now.Add(2 * time.Hour)
	if _, err := f.engine.SubmitFeedback(testCtx, b.ID, f.patient.ID, 4, ""); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	second, err := f.engine.ListCounselors(testCtx, DirectoryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if second[0].Rating == nil || *second[0].Rating != 4 {
		t.Fatalf("expected fresh rating 4 after invalidation, got %v", second[0].Rating)
	}
}

func TestGetCounselorHidesUnverified(t *testing.T) {
	f := newFixture(t)
	hidden := f.profile("hidden@example.com", "LIC-2", func(p *models.CounselorProfile) { p.Eligible = false })

	if _, err := f.engine.GetCounselor(testCtx, hidden.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := f.engine.GetCounselor(testCtx, f.counselor.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if modes := got.Modes(); len(modes) != 2 || modes[0] != models.ModeChat || modes[1] != models.ModeVoice {
		t.Fatalf("unexpected modes %v", modes)
	}
}

func TestCounselorProfileLifecycle(t *testing.T) {
	f := newFixture(t)
	in := ProfileInput{FullName: "Dr. Nisha Paul", LicenseNo: "LIC-9", Languages: []string{"English", "Hindi"}, AvailableVideo: true}

	if _, err := f.engine.CreateCounselorProfile(testCtx, f.patient.ID, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-counselor, got %v", err)
	}

	u := f.user("nisha@example.com", users.RoleCounselor)
	p, err := f.engine.CreateCounselorProfile(testCtx, u.ID, in)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if p.Verified || p.Eligible {
		t.Fatalf("expected new profile to await verification")
	}
	if _, err := f.engine.CreateCounselorProfile(testCtx, u.ID, in); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second profile, got %v", err)
	}

	if _, err := f.engine.VerifyCounselor(testCtx, p.ID, Actor{UserID: u.ID}, true, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for self verification, got %v", err)
	}
	staff := f.staff()
	if _, err := f.engine.VerifyCounselor(testCtx, p.ID, Actor{UserID: staff.ID, IsStaff: true}, true, true); err != nil {
		t.Fatalf("verify: %v", err)
	}

	in.Bio = "Perinatal mental health"
	updated, err := f.engine.UpdateCounselorProfile(testCtx, u.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Verified || updated.Bio != "Perinatal mental health" {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}

	var stored models.CounselorProfile
	f.db.First(&stored, p.ID)
	if len(stored.Languages) != 2 || stored.Languages[1] != "Hindi" {
		t.Fatalf("expected languages to round trip, got %v", stored.Languages)
	}
}
