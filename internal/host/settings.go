package host

import "strconv"

// Settings is a read-only key/value lookup for extension settings.
type Settings interface {
	Setting(key string) (string, bool)
}

// Layered consults each source in order and returns the first hit.
type Layered []Settings

func (l Layered) Setting(key string) (string, bool) {
	for _, s := range l {
		if s == nil {
			continue
		}
		if v, ok := s.Setting(key); ok {
			return v, true
		}
	}
	return "", false
}

// Bool reads a boolean setting. Missing or malformed values are false.
func Bool(s Settings, key string) bool {
	v, ok := s.Setting(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
