package model

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{ActionMarkPaid, StatusOpen, true},
		{ActionMarkPaid, StatusInService, true},
		{ActionMarkPaid, StatusAwaitingPayment, true},
		{ActionMarkPaid, StatusPaid, false},
		{ActionMarkPaid, StatusCancelled, false},
		{ActionCancel, StatusOpen, true},
		{ActionCancel, StatusInService, true},
		{ActionCancel, StatusAwaitingPayment, true},
		{ActionCancel, StatusPaid, false},
		{ActionCancel, StatusCancelled, false},
		{ActionSetStatus, StatusOpen, true},
		{ActionSetStatus, StatusPaid, false},
		{ActionSetStatus, StatusCancelled, false},
		{"unknown", StatusOpen, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestValidManualStatus(t *testing.T) {
	cases := []struct {
		status string
		valid  bool
	}{
		{StatusOpen, true},
		{StatusInService, true},
		{StatusAwaitingPayment, true},
		{StatusPaid, false},
		{StatusCancelled, false},
		{"", false},
	}

	for _, tt := range cases {
		if got := ValidManualStatus(tt.status); got != tt.valid {
			t.Fatalf("ValidManualStatus(%q)=%v, want %v", tt.status, got, tt.valid)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusInService, StatusAwaitingPayment, StatusPaid, StatusCancelled} {
		if !ValidStatus(s) {
			t.Fatalf("ValidStatus(%q)=false, want true", s)
		}
	}
	if ValidStatus("archived") {
		t.Fatal("ValidStatus(\"archived\")=true, want false")
	}
}
