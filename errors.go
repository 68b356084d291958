package controlremo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrApplianceNotFound = errors.New("appliance not found")
	ErrSignalNotFound    = errors.New("signal not found")
	ErrUnauthorized      = errors.New("hub rejected the access token; issue a new one at https://home.nature.global and set NATURE_REMO_TOKEN")
	ErrNoToken           = errors.New("NATURE_REMO_TOKEN is not set; put it into .env or export it")
	ErrNoLocalHost       = errors.New("local hub address is not set; use --ip or NATURE_REMO_LOCAL_IP_ADDRESS")
)

// NotFoundError carries what was searched for and what the hub offered.
type NotFoundError struct {
	Kind      error
	Query     string
	Available []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.Query)
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return e.Kind
}

// IsNotFound reports whether err means no appliance or signal matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrApplianceNotFound) || errors.Is(err, ErrSignalNotFound)
}
