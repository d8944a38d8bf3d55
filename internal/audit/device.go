package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceLabel turns a User-Agent into a display label such as
// "Chrome on macOS" or "Safari on iPhone".
func DeviceLabel(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	if strings.HasPrefix(os, "Intel Mac OS X") || strings.HasPrefix(os, "Mac OS X") {
		os = "macOS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
