package validation

import "testing"

type bookingInput struct {
	SlotID uint   `validate:"required"`
	Mode   string `validate:"required,mode"`
	Rating int    `validate:"omitempty,min=1,max=5"`
}

func TestModeRule(t *testing.T) {
	v := New()
	if err := v.Struct(bookingInput{SlotID: 1, Mode: "video"}); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	err := v.Struct(bookingInput{SlotID: 1, Mode: "fax"})
	errs := v.ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("expected one validation error, got %v", err)
	}
	details := Details(errs)
	if details["Mode"] != "mode" {
		t.Fatalf("expected Mode=mode, got %v", details)
	}
}

func TestRatingBounds(t *testing.T) {
	v := New()
	details := Details(v.ValidationErrors(v.Struct(bookingInput{Mode: "chat", Rating: 6})))
	if details["SlotID"] != "required" || details["Rating"] != "max" {
		t.Fatalf("unexpected details: %v", details)
	}
}
