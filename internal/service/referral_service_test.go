package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bluepay/internal/models"

	"github.com/shopspring/decimal"
)

func TestCreateProfileGeneratesUniqueCodes(t *testing.T) {
	env := newServiceTestEnv(t)
	_, first := env.createUser(t, "first@example.com")
	_, second := env.createUser(t, "second@example.com")

	if len(first.ReferralCode) != env.cfg.Referral.CodeLength {
		t.Fatalf("unexpected code length: %q", first.ReferralCode)
	}
	if first.ReferralCode == second.ReferralCode {
		t.Fatalf("referral codes must be unique")
	}
	if !first.ReferralRate.Decimal.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("unexpected default rate: %s", first.ReferralRate.String())
	}
	if !first.ReferralEarnings.Decimal.IsZero() || first.AccountUpgraded {
		t.Fatalf("new profile must start with zero earnings and not upgraded: %+v", first)
	}
}

func TestProcessReferralCreditsOnce(t *testing.T) {
	env := newServiceTestEnv(t)
	referrer, referrerProfile := env.createUser(t, "referrer@example.com")
	referee, _ := env.createUser(t, "referee@example.com")

	if err := env.referral.ProcessReferral(context.Background(), referee.ID, " "+referrerProfile.ReferralCode+" "); err != nil {
		t.Fatalf("process referral failed: %v", err)
	}
	if got := env.earnings(t, referrer.ID); !got.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("expected one credit of 15000, got %s", got)
	}

	err := env.referral.ProcessReferral(context.Background(), referee.ID, referrerProfile.ReferralCode)
	if !errors.Is(err, ErrReferralAlreadyCredited) {
		t.Fatalf("expected already credited, got %v", err)
	}
	if got := env.earnings(t, referrer.ID); !got.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("second referral must not credit again, got %s", got)
	}

	refereeProfile, err := env.profileRepo.GetByUserID(referee.ID)
	if err != nil || refereeProfile == nil {
		t.Fatalf("load referee profile failed: %v", err)
	}
	if refereeProfile.ReferredBy == nil || *refereeProfile.ReferredBy != referrer.ID {
		t.Fatalf("referee should record its referrer: %+v", refereeProfile.ReferredBy)
	}

	summary, err := env.referral.Summary(context.Background(), referrer.ID, 1, 20)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.ReferralCount != 1 || summary.CreditTotal != 1 || len(summary.Credits) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Credits[0].RefereeID != referee.ID {
		t.Fatalf("unexpected credit: %+v", summary.Credits[0])
	}
}

func TestProcessReferralSoftFailures(t *testing.T) {
	env := newServiceTestEnv(t)
	user, profile := env.createUser(t, "self@example.com")

	cases := []struct {
		name string
		code string
		want error
	}{
		{name: "empty", code: "  ", want: ErrReferralCodeInvalid},
		{name: "unknown", code: "ZZZZZZZZ", want: ErrReferralCodeInvalid},
		{name: "self", code: profile.ReferralCode, want: ErrReferralSelf},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := env.referral.ProcessReferral(context.Background(), user.ID, tc.code)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !isReferralSoftFail(err) {
				t.Fatalf("expected soft failure, got %v", err)
			}
		})
	}
	if got := env.earnings(t, user.ID); !got.IsZero() {
		t.Fatalf("failed referrals must not credit, got %s", got)
	}
}

func TestReferralUsesUpgradedRate(t *testing.T) {
	env := newServiceTestEnv(t)
	referrer, referrerProfile := env.createUser(t, "upgraded@example.com")
	referee, _ := env.createUser(t, "invitee@example.com")

	if err := env.profileRepo.SetUpgraded(referrer.ID, models.NewMoneyFromInt(25000), env.referral.now()); err != nil {
		t.Fatalf("set upgraded failed: %v", err)
	}
	if err := env.referral.ProcessReferral(context.Background(), referee.ID, referrerProfile.ReferralCode); err != nil {
		t.Fatalf("process referral failed: %v", err)
	}
	if got := env.earnings(t, referrer.ID); !got.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("expected upgraded rate credit, got %s", got)
	}
}

func TestCreateProfileRegeneratesCollidingCode(t *testing.T) {
	env := newServiceTestEnv(t)
	_, taken := env.createUser(t, "taken@example.com")
	user := &models.User{Email: "fresh@example.com", PasswordHash: "hash"}
	if err := env.userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	codes := []string{taken.ReferralCode, "FRESH234"}
	env.referral.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	profile, err := env.referral.CreateProfile(env.profileRepo, user.ID)
	if err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	if profile.ReferralCode != "FRESH234" {
		t.Fatalf("expected regenerated code, got %q", profile.ReferralCode)
	}

	again, err := env.referral.CreateProfile(env.profileRepo, user.ID)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if again.ID != profile.ID {
		t.Fatalf("expected existing profile %d, got %d", profile.ID, again.ID)
	}
}

func TestCreateProfileExhaustedCodesIsPersistenceError(t *testing.T) {
	env := newServiceTestEnv(t)
	_, taken := env.createUser(t, "owner@example.com")
	user := &models.User{Email: "unlucky@example.com", PasswordHash: "hash"}
	if err := env.userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	env.referral.newCode = func() (string, error) { return taken.ReferralCode, nil }

	_, err := env.referral.CreateProfile(env.profileRepo, user.ID)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if errors.Is(err, ErrReferralCodeInvalid) {
		t.Fatalf("exhausted code generation must not look like a bad referral code")
	}
}
