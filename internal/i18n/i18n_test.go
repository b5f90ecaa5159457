package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTFallsBackToDefaultAndKey(t *testing.T) {
	if got := T("zh-CN", "error.withdrawal_code_invalid"); got == "" || got == "error.withdrawal_code_invalid" {
		t.Fatalf("expected zh-CN translation, got %q", got)
	}
	if got := T("fr-FR", "error.withdrawal_code_invalid"); got != messages[DefaultLocale]["error.withdrawal_code_invalid"] {
		t.Fatalf("expected default locale fallback, got %q", got)
	}
	if got := T("en-US", "error.not_a_real_key"); got != "error.not_a_real_key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestSprintf(t *testing.T) {
	got := Sprintf("en-US", "error.password_min_length", 8)
	if got != "Password must be at least 8 characters" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		target string
		header map[string]string
		want   string
	}{
		{name: "default", target: "/", want: "en-US"},
		{name: "query", target: "/?lang=zh_cn", want: "zh-CN"},
		{name: "x-locale", target: "/", header: map[string]string{"X-Locale": "zh-CN"}, want: "zh-CN"},
		{name: "accept-language", target: "/", header: map[string]string{"Accept-Language": "fr;q=0.9, zh;q=0.8"}, want: "zh-CN"},
		{name: "unsupported", target: "/", header: map[string]string{"Accept-Language": "fr-FR"}, want: "en-US"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", tc.target, nil)
			for k, v := range tc.header {
				c.Request.Header.Set(k, v)
			}
			if got := ResolveLocale(c); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestMessageTablesHaveSameKeys(t *testing.T) {
	base := messages[DefaultLocale]
	for locale, table := range messages {
		for key := range base {
			if _, ok := table[key]; !ok {
				t.Fatalf("locale %s missing key %s", locale, key)
			}
		}
		for key := range table {
			if _, ok := base[key]; !ok {
				t.Fatalf("locale %s has extra key %s", locale, key)
			}
		}
	}
}
