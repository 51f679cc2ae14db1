package recipients

import (
	"net/netip"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

const maxEmailLength = 320

var (
	// dot-atom or quoted-string local part
	userPattern = regexp.MustCompile(`(?i)^(?:[-!#$%&'*+/=?^_` + "`" + `{}|~0-9A-Z]+(?:\.[-!#$%&'*+/=?^_` + "`" + `{}|~0-9A-Z]+)*` +
		`|"(?:[\x01-\x08\x0b\x0c\x0e-\x1f!#-\[\]-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])*")$`)

	domainPattern  = regexp.MustCompile(`(?i)^(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+([A-Z0-9-]{2,63})$`)
	literalPattern = regexp.MustCompile(`(?i)^\[([A-F0-9:.]+)\]$`)

	domainAllowlist = []string{"localhost"}
)

// ValidEmail reports whether value is a syntactically valid e-mail address.
// Internationalized domains are accepted after punycode conversion and
// bracketed IP literals must hold a valid IPv4 or IPv6 address.
func ValidEmail(value string) bool {
	if value == "" || len(value) > maxEmailLength {
		return false
	}
	at := strings.LastIndexByte(value, '@')
	if at < 0 {
		return false
	}
	user, domain := value[:at], value[at+1:]

	if !userPattern.MatchString(user) {
		return false
	}
	for _, allowed := range domainAllowlist {
		if domain == allowed {
			return true
		}
	}
	if validDomain(domain) {
		return true
	}

	ascii, err := idna.Punycode.ToASCII(domain)
	if err != nil || ascii == domain {
		return false
	}
	return validDomain(ascii)
}

func validDomain(domain string) bool {
	if m := domainPattern.FindStringSubmatch(domain); m != nil {
		return !strings.HasSuffix(m[1], "-")
	}
	if m := literalPattern.FindStringSubmatch(domain); m != nil {
		_, err := netip.ParseAddr(m[1])
		return err == nil
	}
	return false
}
