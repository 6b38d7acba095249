package i18n

import "testing"

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ru_RU.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "ru_RU" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ru_RU")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")

		if got := detectLanguage(); got != "fr_FR" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "fr_FR")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}

	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}

	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}

func TestRussianCatalog(t *testing.T) {
	oldPo, oldLang := po, lang
	t.Cleanup(func() { po, lang = oldPo, oldLang })

	Init("ru")
	if Lang() != "ru" {
		t.Fatalf("Lang() = %q, want %q", Lang(), "ru")
	}
	if got := T("Nothing to fix"); got != "Исправлять нечего" {
		t.Fatalf("T = %q, want %q", got, "Исправлять нечего")
	}
	if got := Tf("line %d: %s", 3, "x"); got != "строка 3: x" {
		t.Fatalf("Tf = %q, want %q", got, "строка 3: x")
	}

	cases := []struct {
		n    int
		want string
	}{
		{1, "%d несовпадение тегов"},
		{3, "%d несовпадения тегов"},
		{5, "%d несовпадений тегов"},
		{21, "%d несовпадение тегов"},
	}
	for _, tc := range cases {
		if got := N("%d tag mismatch", "%d tag mismatches", tc.n); got != tc.want {
			t.Fatalf("N(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}

	if got := T("untranslated message"); got != "untranslated message" {
		t.Fatalf("T passthrough = %q", got)
	}
}
