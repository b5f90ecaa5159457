package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/bluepay/internal/config"
)

func TestValidatePassword(t *testing.T) {
	policy := config.PasswordPolicyConfig{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}
	cases := []struct {
		password string
		key      string
	}{
		{password: "Ab1!", key: "error.password_min_length"},
		{password: "abcdefg1!", key: "error.password_require_upper"},
		{password: "ABCDEFG1!", key: "error.password_require_lower"},
		{password: "Abcdefgh!", key: "error.password_require_number"},
		{password: "Abcdefg12", key: "error.password_require_special"},
		{password: "Aa1!" + strings.Repeat("x", 80), key: "error.password_too_long"},
		{password: "Abcdef1!", key: ""},
	}
	for _, tc := range cases {
		err := validatePassword(policy, tc.password)
		if tc.key == "" {
			if err != nil {
				t.Fatalf("password %q should pass: %v", tc.password, err)
			}
			continue
		}
		var policyErr passwordPolicyError
		if !errors.As(err, &policyErr) || policyErr.Key() != tc.key {
			t.Fatalf("password %q want %s got %v", tc.password, tc.key, err)
		}
		if !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("policy error should match ErrWeakPassword")
		}
	}
}

func TestValidatePasswordEmptyPolicy(t *testing.T) {
	if err := validatePassword(config.PasswordPolicyConfig{}, "a"); err != nil {
		t.Fatalf("empty policy should accept any password: %v", err)
	}
}
