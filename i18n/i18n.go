// Package i18n localizes dlgkit's own messages: CLI output and the status
// messages of the paste reconciler.
//
// Translations are gettext catalogs embedded in the binary and selected
// once at startup:
//
//	i18n.Init("")  // LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	fmt.Println(i18n.T("No problems found"))
//	fmt.Println(i18n.Tf("%d strings scanned", n))
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Layout: locales/{lang}/LC_MESSAGES/dlgkit.po
//
//go:embed all:locales
var locales embed.FS

const domain = "dlgkit"

var (
	po   *gotext.Locale
	lang = "en"
)

// Init selects the message catalog. An empty name is detected from the
// environment the way GNU gettext does it. Call it once, before T.
func Init(name string) {
	if name == "" {
		name = detectLanguage()
	}
	lang = name

	po = gotext.NewLocaleFSWithPath(name, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the selected language.
func Lang() string {
	return lang
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid, []any(nil)...)
}

// Tf translates a format string and applies args to it.
func Tf(format string, args ...any) string {
	return fmt.Sprintf(T(format), args...)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// "C" and "POSIX" mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
