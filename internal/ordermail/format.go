package ordermail

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// regional completes a language-only locale with the event region, so "fr"
// in region "BE" becomes "fr-be". A locale that already names a region is
// kept as is.
func regional(locale, region string) string {
	locale = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	region = strings.TrimSpace(region)
	if locale == "" || region == "" || strings.Contains(locale, "-") {
		return locale
	}
	base, err := language.ParseBase(locale)
	if err != nil {
		return locale
	}
	r, err := language.ParseRegion(region)
	if err != nil {
		return locale
	}
	tag, err := language.Compose(base, r)
	if err != nil {
		return locale
	}
	return strings.ToLower(tag.String())
}

// formatter prints amounts and dates the way a locale writes them.
type formatter struct {
	printer *message.Printer
	tag     language.Tag
}

func newFormatter(locale string) formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return formatter{printer: message.NewPrinter(tag), tag: tag}
}

func (f formatter) money(d decimal.Decimal, currency string) string {
	amount := f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

func (f formatter) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(f.dateLayout())
}

func (f formatter) dateLayout() string {
	if r, conf := f.tag.Region(); conf == language.Exact && r.String() == "US" {
		return "01/02/2006"
	}
	switch base, _ := f.tag.Base(); base.String() {
	case "de":
		return "02.01.2006"
	case "nl":
		return "02-01-2006"
	default:
		return "02/01/2006"
	}
}
