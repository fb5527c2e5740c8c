//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
)

func TestVoucherRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewVoucherRepo(testPool)
	accountRepo := NewAccountRepo(testPool)

	account, _ := model.NewAccount("", "voucher@example.com", "")

	setup := func(t *testing.T) {
		cleanup(t)
		if err := accountRepo.Save(ctx, nil, account); err != nil {
			t.Fatalf("failed to save account: %v", err)
		}
	}

	newVoucher := func(t *testing.T, code string) *model.Voucher {
		t.Helper()
		v, err := model.NewVoucher("", code, &account.ID, 60, nil, nil)
		if err != nil {
			t.Fatalf("failed to build voucher: %v", err)
		}
		if err := repo.Create(ctx, nil, v); err != nil {
			t.Fatalf("failed to create voucher: %v", err)
		}
		return v
	}

	t.Run("should create and find a voucher", func(t *testing.T) {
		setup(t)
		v := newVoucher(t, "ABCDEFG234")

		found, err := repo.FindByID(ctx, nil, v.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.Code != "ABCDEFG234" || found.Status != model.VoucherStatusActive {
			t.Errorf("unexpected voucher: %+v", found)
		}
		if found.ExpiresAt != nil {
			t.Error("expires_at must be NULL before activation")
		}

		byCode, err := repo.FindByCodeAndAccount(ctx, nil, "ABCDEFG234", account.ID)
		if err != nil {
			t.Fatalf("FindByCodeAndAccount failed: %v", err)
		}
		if byCode.ID != v.ID {
			t.Errorf("expected %s, got %s", v.ID, byCode.ID)
		}
	})

	t.Run("should reject duplicate codes", func(t *testing.T) {
		setup(t)
		newVoucher(t, "DUPECODE77")

		dup, _ := model.NewVoucher("", "DUPECODE77", &account.ID, 30, nil, nil)
		err := repo.Create(ctx, nil, dup)
		if !errors.Is(err, domain.ErrDuplicateCode) {
			t.Fatalf("expected ErrDuplicateCode, got %v", err)
		}
	})

	t.Run("SetExpiresAtIfNull should win exactly once", func(t *testing.T) {
		setup(t)
		v := newVoucher(t, "WINDOWCODE")
		expiresAt := time.Now().UTC().Add(time.Hour)

		if err := repo.SetExpiresAtIfNull(ctx, nil, v.ID, expiresAt); err != nil {
			t.Fatalf("first SetExpiresAtIfNull failed: %v", err)
		}
		err := repo.SetExpiresAtIfNull(ctx, nil, v.ID, expiresAt.Add(time.Hour))
		if !errors.Is(err, domain.ErrConcurrentModification) {
			t.Fatalf("expected ErrConcurrentModification on second call, got %v", err)
		}

		found, _ := repo.FindByID(ctx, nil, v.ID)
		if found.ExpiresAt == nil || !found.ExpiresAt.Equal(expiresAt) {
			t.Errorf("window start must keep the first writer's value, got %v", found.ExpiresAt)
		}
	})

	t.Run("UpdateStatusIfCurrent should fail when status moved", func(t *testing.T) {
		setup(t)
		v := newVoucher(t, "CASCODE222")
		usedAt := time.Now().UTC()

		err := repo.UpdateStatusIfCurrent(ctx, nil, v.ID,
			model.VoucherStatusActive, model.VoucherStatusUsed,
			repository.StatusUpdate{UsedAt: &usedAt})
		if err != nil {
			t.Fatalf("first transition failed: %v", err)
		}

		// Same precondition again: the row is no longer active.
		err = repo.UpdateStatusIfCurrent(ctx, nil, v.ID,
			model.VoucherStatusActive, model.VoucherStatusExpired,
			repository.StatusUpdate{})
		if !errors.Is(err, domain.ErrConcurrentModification) {
			t.Fatalf("expected ErrConcurrentModification, got %v", err)
		}

		found, _ := repo.FindByID(ctx, nil, v.ID)
		if found.Status != model.VoucherStatusUsed || found.UsedAt == nil {
			t.Errorf("voucher should stay used with used_at set: %+v", found)
		}
	})

	t.Run("ExpireDue should only touch elapsed active vouchers", func(t *testing.T) {
		setup(t)
		now := time.Now().UTC()

		elapsed := newVoucher(t, "ELAPSED111")
		if err := repo.SetExpiresAtIfNull(ctx, nil, elapsed.ID, now.Add(-time.Minute)); err != nil {
			t.Fatalf("failed to backdate window: %v", err)
		}
		live := newVoucher(t, "STILLOK222")
		if err := repo.SetExpiresAtIfNull(ctx, nil, live.ID, now.Add(time.Hour)); err != nil {
			t.Fatalf("failed to set window: %v", err)
		}
		newVoucher(t, "FRESH33333") // never activated; must not expire

		n, err := repo.ExpireDue(ctx, nil, now)
		if err != nil {
			t.Fatalf("ExpireDue failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 expired voucher, got %d", n)
		}

		counts, err := repo.CountByStatus(ctx, nil)
		if err != nil {
			t.Fatalf("CountByStatus failed: %v", err)
		}
		if counts["expired"] != 1 || counts["active"] != 2 {
			t.Errorf("unexpected counts: %v", counts)
		}
	})

	t.Run("FindByAccount should return newest first", func(t *testing.T) {
		setup(t)
		newVoucher(t, "LISTCODE01")
		newVoucher(t, "LISTCODE02")

		got, err := repo.FindByAccount(ctx, nil, account.ID)
		if err != nil {
			t.Fatalf("FindByAccount failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 vouchers, got %d", len(got))
		}
	})
}
