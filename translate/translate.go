// Package translate formats user-visible messages for the host locale.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ezrec/sos/log"
)

// FALLBACK_LOCALE is used when the host locale cannot be determined.
const FALLBACK_LOCALE = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.L.Warn("translate: host locale", "err", err)
	}

	if len(locales) == 0 {
		locales = []string{FALLBACK_LOCALE}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// SetLanguage replaces the host locale.
func SetLanguage(tag language.Tag) {
	printer = message.NewPrinter(tag)
}
