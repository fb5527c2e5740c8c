//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/dadyutenga/voucher/internal/domain"
)

// --- Account Model Tests ---

func TestNewAccount(t *testing.T) {
	t.Run("should create a new account successfully", func(t *testing.T) {
		startTime := time.Now()
		acc, err := NewAccount("", "Guest@Example.COM ", " 0712345678 ")

		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if acc == nil {
			t.Fatal("expected account to be non-nil, but got nil")
		}
		if acc.ID == "" {
			t.Error("expected account ID to be non-empty")
		}
		if acc.Email != "guest@example.com" {
			t.Errorf("expected e-mail to be canonicalized, but got %s", acc.Email)
		}
		if acc.Phone != "0712345678" {
			t.Errorf("expected phone to be trimmed, but got %q", acc.Phone)
		}
		if !acc.IsActive {
			t.Error("expected new account to be active")
		}
		if acc.LastLoginAt != nil {
			t.Error("expected last login to be nil before first redemption")
		}
		if time.Since(startTime) > time.Second {
			t.Errorf("acc.CreatedAt timestamp is too far from current time")
		}
	})

	t.Run("should fail with missing e-mail", func(t *testing.T) {
		acc, err := NewAccount("", "", "")
		if err == nil {
			t.Fatal("expected an error for empty e-mail, but got nil")
		}
		if acc != nil {
			t.Error("expected account to be nil on error")
		}
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected error to be ErrInvalidArgument, but got %T", err)
		}
	})

	t.Run("should fail with malformed e-mail", func(t *testing.T) {
		if _, err := NewAccount("", "not-an-email", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestAccountTouch(t *testing.T) {
	acc, err := NewAccount("", "guest@example.com", "")
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	acc.Touch()
	if acc.LastLoginAt == nil {
		t.Fatal("expected last login to be set after touch")
	}
}

// --- Voucher Model Tests ---

func TestNewVoucher(t *testing.T) {
	t.Run("should create an active voucher without a started window", func(t *testing.T) {
		v, err := NewVoucher("", "ABCD-1234", nil, 60, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if v.Status != VoucherStatusActive {
			t.Errorf("expected status active, got %s", v.Status)
		}
		if v.Activated() {
			t.Error("expected the activation window to not have started")
		}
		if v.ExpiresAt != nil || v.UsedAt != nil {
			t.Error("expected expires_at and used_at to be nil at issuance")
		}
	})

	t.Run("should fail with empty code", func(t *testing.T) {
		if _, err := NewVoucher("", "", nil, 60, nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should fail with non-positive duration", func(t *testing.T) {
		if _, err := NewVoucher("", "ABCD-1234", nil, 0, nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should fail with non-positive data cap", func(t *testing.T) {
		zero := 0
		if _, err := NewVoucher("", "ABCD-1234", nil, 60, &zero, nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestVoucherWindow(t *testing.T) {
	now := time.Now().UTC()

	t.Run("remaining minutes is nil before activation", func(t *testing.T) {
		v, _ := NewVoucher("", "ABCD-1234", nil, 60, nil, nil)
		if v.RemainingMinutes(now) != nil {
			t.Error("expected nil remaining minutes before activation")
		}
		if got := v.RemainingSeconds(now); got != 3600 {
			t.Errorf("expected the full fixed duration before activation, got %d", got)
		}
		if v.WindowElapsed(now) {
			t.Error("expected window to not be elapsed before activation")
		}
	})

	t.Run("remaining time floors at zero after the window", func(t *testing.T) {
		v, _ := NewVoucher("", "ABCD-1234", nil, 60, nil, nil)
		past := now.Add(-time.Minute)
		v.ExpiresAt = &past

		if !v.WindowElapsed(now) {
			t.Error("expected window to be elapsed")
		}
		if got := v.RemainingMinutes(now); got == nil || *got != 0 {
			t.Errorf("expected zero remaining minutes, got %v", got)
		}
		if got := v.RemainingSeconds(now); got != 0 {
			t.Errorf("expected zero remaining seconds, got %d", got)
		}
	})

	t.Run("remaining minutes floors partial minutes", func(t *testing.T) {
		v, _ := NewVoucher("", "ABCD-1234", nil, 60, nil, nil)
		exp := now.Add(90 * time.Second)
		v.ExpiresAt = &exp

		if got := v.RemainingMinutes(now); got == nil || *got != 1 {
			t.Errorf("expected 1 remaining minute, got %v", got)
		}
	})
}

func TestVoucherTransitions(t *testing.T) {
	cases := []struct {
		name string
		from VoucherStatus
		to   VoucherStatus
		ok   bool
	}{
		{"active to used", VoucherStatusActive, VoucherStatusUsed, true},
		{"active to expired", VoucherStatusActive, VoucherStatusExpired, true},
		{"used is terminal", VoucherStatusUsed, VoucherStatusExpired, false},
		{"expired is terminal", VoucherStatusExpired, VoucherStatusUsed, false},
		{"used cannot reactivate", VoucherStatusUsed, VoucherStatusActive, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, _ := NewVoucher("", "ABCD-1234", nil, 60, nil, nil)
			v.Status = tc.from
			if got := v.CanTransitionTo(tc.to); got != tc.ok {
				t.Errorf("CanTransitionTo(%s) from %s = %v, want %v", tc.to, tc.from, got, tc.ok)
			}
		})
	}
}

// --- MAC Canonicalization Tests ---

func TestCanonicalMAC(t *testing.T) {
	valid := []struct {
		in   string
		want string
	}{
		{"aa:bb:cc:dd:ee:ff", "aa:bb:cc:dd:ee:ff"},
		{"AA:BB:CC:DD:EE:FF", "aa:bb:cc:dd:ee:ff"},
		{"aa-bb-cc-dd-ee-ff", "aa:bb:cc:dd:ee:ff"},
		{"aabbccddeeff", "aa:bb:cc:dd:ee:ff"},
		{"  AABBCCDDEEFF  ", "aa:bb:cc:dd:ee:ff"},
	}
	for _, tc := range valid {
		got, err := CanonicalMAC(tc.in)
		if err != nil {
			t.Errorf("CanonicalMAC(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CanonicalMAC(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	invalid := []string{"", "aa:bb:cc:dd:ee", "aa:bb:cc:dd:ee:ff:00", "gg:bb:cc:dd:ee:ff", "aabbccddeefg"}
	for _, in := range invalid {
		if _, err := CanonicalMAC(in); !errors.Is(err, domain.ErrInvalidClientID) {
			t.Errorf("CanonicalMAC(%q): expected ErrInvalidClientID, got %v", in, err)
		}
	}
}

// --- Package Model Tests ---

func TestNewPackage(t *testing.T) {
	t.Run("should create an active package", func(t *testing.T) {
		capMB := 2048
		p, err := NewPackage("", "Day Pass", 1440, &capMB, 10000, "TZS")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !p.IsActive {
			t.Error("expected new package to be active")
		}
		if p.ID == "" {
			t.Error("expected a generated ID")
		}
	})

	t.Run("should fail with invalid fields", func(t *testing.T) {
		cases := []struct {
			name     string
			pkgName  string
			minutes  int
			price    int64
			currency string
		}{
			{"empty name", "", 60, 1000, "TZS"},
			{"zero duration", "Plan", 0, 1000, "TZS"},
			{"negative price", "Plan", 60, -1, "TZS"},
			{"empty currency", "Plan", 60, 1000, ""},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := NewPackage("", tc.pkgName, tc.minutes, nil, tc.price, tc.currency); !errors.Is(err, domain.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			})
		}
	})
}

// --- Transaction Model Tests ---

func TestNewTransaction(t *testing.T) {
	t.Run("should create a pending transaction", func(t *testing.T) {
		tx, err := NewTransaction("", "WIFI-01ABC", 10000, "TZS", "mpesa", nil)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if tx.Status != TransactionStatusPending {
			t.Errorf("expected pending status, got %s", tx.Status)
		}
		if tx.Terminal() {
			t.Error("expected pending transaction to not be terminal")
		}
	})

	t.Run("completed and failed are terminal", func(t *testing.T) {
		tx, _ := NewTransaction("", "WIFI-01ABC", 10000, "TZS", "mpesa", nil)
		tx.Status = TransactionStatusCompleted
		if !tx.Terminal() {
			t.Error("expected completed to be terminal")
		}
		tx.Status = TransactionStatusFailed
		if !tx.Terminal() {
			t.Error("expected failed to be terminal")
		}
	})

	t.Run("should fail with invalid fields", func(t *testing.T) {
		if _, err := NewTransaction("", "", 10000, "TZS", "mpesa", nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty reference, got %v", err)
		}
		if _, err := NewTransaction("", "WIFI-01ABC", 0, "TZS", "mpesa", nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero amount, got %v", err)
		}
	})
}
