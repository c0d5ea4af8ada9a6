package busapi

import (
	"fmt"
	"unicode/utf8"

	"github.com/godbus/dbus/v5"
)

// PathToString converts an object path to its string form.
func PathToString(path dbus.ObjectPath) (string, error) {
	s := string(path)
	if !utf8.ValidString(s) {
		return "", &Error{
			Kind:    KindVariantShape,
			Message: fmt.Sprintf("Path not a UTF-8 string: %q", s),
		}
	}
	return s, nil
}
