package models

import (
	"fmt"
	"strings"
)

// Flag is a boolean that also accepts the 0/1 integers the rental API returns
// for TINYINT columns such as Availability.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.TrimSpace(string(data)), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "null", "":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}
