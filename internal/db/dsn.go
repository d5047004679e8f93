package db

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	kvPairRegex   = regexp.MustCompile(`(?i)\b(host|user|password|dbname|port|sslmode)=`)
	passwordRegex = regexp.MustCompile(`(password=)([^\s]+)`)
)

// NormalizeDSN accepts either a URL style DSN (postgres://...) or a key=value list.
// It trims quotes and whitespace and, for key=value form, collapses spaces and
// defaults sslmode to disable.
func NormalizeDSN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	// If it does not look like key=value pairs, return unchanged (driver will error)
	if !kvPairRegex.MatchString(s) {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// ToURLDSN builds a URL style DSN from key=value form; golang-migrate only accepts URLs.
func ToURLDSN(kvDSN string) string {
	lower := strings.ToLower(kvDSN)
	if kvDSN == "" || strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return kvDSN
	}
	m := map[string]string{}
	for _, part := range strings.Fields(kvDSN) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			m[strings.ToLower(kv[0])] = kv[1]
		}
	}
	host, port, user, pass, dbname := m["host"], m["port"], m["user"], m["password"], m["dbname"]
	if host == "" || user == "" || dbname == "" {
		return kvDSN
	}
	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + dbname}
	if port != "" {
		u.Host = host + ":" + port
	}
	if pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	if sslm, ok := m["sslmode"]; ok {
		u.RawQuery = url.Values{"sslmode": {sslm}}.Encode()
	}
	return u.String()
}

// MaskDSN hides the password for log output.
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
			return u.String()
		}
		return dsn
	}
	return passwordRegex.ReplaceAllString(dsn, `${1}***`)
}
