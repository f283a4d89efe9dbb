package linkcheck

import (
	"net/netip"
	"regexp"
	"strings"
)

var knownWorkingDomains = []string{
	"github.com", "stackoverflow.com", "google.com", "youtube.com",
	"facebook.com", "twitter.com", "linkedin.com", "medium.com",
	"dev.to", "codepen.io", "dribbble.com", "behance.net",
	"figma.com", "notion.so", "discord.com", "slack.com",
}

// Matched against the full URL once every probe has failed.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)example\.(com|org|net)`),
	regexp.MustCompile(`(?i)test\.`),
	regexp.MustCompile(`(?i)staging\.`),
}

var commonTLDs = []string{
	".com", ".org", ".net", ".edu", ".gov", ".io", ".co",
	".uk", ".de", ".fr", ".jp", ".au", ".ca", ".in", ".br",
}

// isKnownDomain reports whether host is, or is a subdomain of, a domain on
// the allow-list.
func isKnownDomain(host string) bool {
	host = strings.ToLower(host)
	for _, d := range knownWorkingDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// isLocalHost reports loopback, private and link-local addresses,
// localhost and mDNS (.local) names.
func isLocalHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}

func isSuspicious(rawURL string) bool {
	for _, re := range suspiciousPatterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

func hasCommonTLD(host string) bool {
	host = strings.ToLower(host)
	for _, tld := range commonTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	return false
}
