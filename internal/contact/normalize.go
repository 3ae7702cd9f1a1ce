package contact

import "strings"

// NormalizeEmail returns the canonical form of a validated address: the whole
// address is lower-cased and provider-specific sub-addressing is stripped
// (gmail also ignores dots and aliases googlemail.com).
func NormalizeEmail(addr string) string {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return strings.ToLower(addr)
	}
	local := strings.ToLower(addr[:at])
	domain := strings.ToLower(addr[at+1:])

	switch domain {
	case "gmail.com", "googlemail.com":
		local = cutTag(local, "+")
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	case "outlook.com", "hotmail.com", "live.com", "icloud.com", "me.com", "mac.com":
		local = cutTag(local, "+")
	case "yahoo.com", "ymail.com", "rocketmail.com":
		local = cutTag(local, "-")
	}
	if local == "" {
		return strings.ToLower(addr)
	}
	return local + "@" + domain
}

func cutTag(local, sep string) string {
	before, _, _ := strings.Cut(local, sep)
	return before
}
