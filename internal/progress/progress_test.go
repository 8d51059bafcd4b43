package progress

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"available", StatusAvailable},
		{"AVAILABLE", StatusAvailable},
		{"open", StatusAvailable},
		{"payment_required", StatusPaymentRequired},
		{"payment-required", StatusPaymentRequired},
		{"locked", StatusLocked},
		{"", StatusLocked},
		{"garbage", StatusLocked},
	}

	for _, tt := range tests {
		if got := ParseStatus(tt.raw); got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCanOpen(t *testing.T) {
	if !StatusAvailable.CanOpen() {
		t.Error("available lesson not openable")
	}
	if StatusLocked.CanOpen() {
		t.Error("locked lesson openable")
	}
	if StatusPaymentRequired.CanOpen() {
		t.Error("unpaid lesson openable")
	}
}

func TestReason_BlockedStatusesExplain(t *testing.T) {
	if StatusLocked.Reason() == "" {
		t.Error("locked status has no reason message")
	}
	if StatusPaymentRequired.Reason() == "" {
		t.Error("payment_required status has no reason message")
	}
	if StatusAvailable.Reason() != "" {
		t.Error("available status should carry no refusal reason")
	}
}

func TestCertificateEligible_IndependentOfPassThreshold(t *testing.T) {
	// 60% fails the assessment display threshold but still qualifies
	// for the certificate.
	if !CertificateEligible(60) {
		t.Error("60 percent should be certificate-eligible")
	}
	if CertificateEligible(49) {
		t.Error("49 percent should not be certificate-eligible")
	}
}
