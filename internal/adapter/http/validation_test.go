package http

import (
	"errors"
	"strings"
	"testing"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestHex32Validation(t *testing.T) {
	type P struct {
		PartyID string `validate:"hex32"`
	}
	cv := NewValidator()

	if err := cv.Validate(P{PartyID: strings.Repeat("a", 32)}); err != nil {
		t.Fatalf("expected valid hex32, got err: %v", err)
	}
	for _, s := range []string{
		"",
		strings.Repeat("A", 32),
		"deadbeef",
		strings.Repeat("g", 32),
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88x",
	} {
		err := cv.Validate(P{PartyID: s})
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "PartyID", "32-char lowercase hex") {
			t.Fatalf("expected hex32 message for %q, got: %+v", s, fe)
		}
	}
}

func TestPartyValidation(t *testing.T) {
	type P struct {
		PartyID string `validate:"party"`
	}
	cv := NewValidator()

	for _, s := range []string{"escrow", strings.Repeat("c", 32)} {
		if err := cv.Validate(P{PartyID: s}); err != nil {
			t.Fatalf("expected %q to be a valid party, got %v", s, err)
		}
	}
	err := cv.Validate(P{PartyID: "Escrow"})
	if fe := ToFieldErrors(err); !containsFieldMsg(fe, "PartyID", "or escrow") {
		t.Fatalf("expected party message, got %+v", fe)
	}
}

func TestAmountValidation(t *testing.T) {
	type P struct {
		Amount string `validate:"amount"`
	}
	cv := NewValidator()

	for _, v := range []string{"0", "1", "800000000000000000", strings.Repeat("9", 65)} {
		if err := cv.Validate(P{Amount: v}); err != nil {
			t.Fatalf("expected amount OK for %q, got %v", v, err)
		}
	}
	for _, v := range []string{
		"", "1.5", "-3", "abc", "1e-3", "0x10", "5.0", "1e30", "1e30000000", " 1",
		"1" + strings.Repeat("0", 65),
		"115792089237316195423570985008687907853269984665640564039457584007913129639935",
	} {
		err := cv.Validate(P{Amount: v})
		if err == nil {
			t.Fatalf("expected amount error for %q", v)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "Amount", "non-negative integer") {
			t.Fatalf("expected amount message for %q, got %+v", v, fe)
		}
	}
}

func TestRequiredAndBoundsMapping(t *testing.T) {
	type P struct {
		Name string `validate:"required"`
		Min  int    `validate:"gte=10"`
		Max  int    `validate:"lte=5"`
		Pos  int    `validate:"gt=0"`
	}
	cv := NewValidator()

	err := cv.Validate(P{Name: "", Min: 9, Max: 6, Pos: -60})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)
	if !containsFieldMsg(fe, "Name", "is required") {
		t.Fatalf("missing 'is required' for Name: %+v", fe)
	}
	if !containsFieldMsg(fe, "Min", "greater than or equal to 10") {
		t.Fatalf("missing gte message for Min: %+v", fe)
	}
	if !containsFieldMsg(fe, "Max", "less than or equal to 5") {
		t.Fatalf("missing lte message for Max: %+v", fe)
	}
	if !containsFieldMsg(fe, "Pos", "greater than 0") {
		t.Fatalf("missing gt message for Pos: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	fe := ToFieldErrors(errors.New("boom"))
	if len(fe) != 1 || fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		"InvalidParameters": 422,
		"InvalidAmount":     422,
		"LoanNotFound":      404,
		"InvalidState":      409,
		"NotYetDue":         409,
		"Unauthorized":      403,
		"InsufficientValue": 402,
		"TransferFailed":    500,
		"Internal":          500,
	}
	for kind, want := range tests {
		if got := StatusFor(kind); got != want {
			t.Fatalf("StatusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}
