package utils

import (
	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string, recorded
// alongside stored refresh tokens.
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile or desktop
	OS         string `json:"os"`          // Android 12, iOS 15, Windows 10, etc.
	Browser    string `json:"browser"`     // Chrome, Safari, Firefox, etc.
	Raw        string `json:"raw"`         // Original user agent string
}

// ParseUserAgent parses a User-Agent string and extracts device information
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{
			DeviceType: "unknown",
			OS:         "Unknown",
			Browser:    "Unknown",
		}
	}

	parser := ua.New(userAgent)

	info := DeviceInfo{
		DeviceType: "desktop",
		OS:         "Unknown",
		Browser:    "Unknown",
		Raw:        userAgent,
	}

	if parser.Mobile() {
		info.DeviceType = "mobile"
	}

	osInfo := parser.OSInfo()
	if osInfo.Name != "" {
		info.OS = osInfo.Name
		if osInfo.Version != "" {
			info.OS += " " + osInfo.Version
		}
	}

	if name, _ := parser.Browser(); name != "" {
		info.Browser = name
	}

	return info
}
