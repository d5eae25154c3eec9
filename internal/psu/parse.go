package psu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The instrument answers numeric queries in scientific notation, e.g.
// "+5.89410700E-03". Firmware versions look like "1995.0".

var firmwareVersionRe = regexp.MustCompile(`^\d{4}\.\d+$`)

// ValidFirmware reports whether a version reply has the yyyy.x shape the
// instrument family uses.
func ValidFirmware(reply string) bool {
	return firmwareVersionRe.MatchString(strings.TrimSpace(reply))
}

func parseDecimal(reply string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal", ErrParse, reply)
	}
	return v, nil
}

func parseOutput(reply string) (bool, error) {
	switch strings.TrimSpace(reply) {
	case "0", "OFF":
		return false, nil
	case "1", "ON":
		return true, nil
	}
	return false, fmt.Errorf("%w: %q is not an output state", ErrParse, reply)
}

// parsePair handles APPL? replies: an optionally quoted comma-separated
// voltage,current pair, sometimes with a trailing third field.
func parsePair(reply string) (volts, amps float64, err error) {
	trimmed := strings.Trim(strings.TrimSpace(reply), `"`)
	fields := strings.Split(trimmed, ",")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, 0, fmt.Errorf("%w: %q is not a voltage,current pair", ErrParse, reply)
	}
	if volts, err = parseDecimal(fields[0]); err != nil {
		return 0, 0, err
	}
	if amps, err = parseDecimal(fields[1]); err != nil {
		return 0, 0, err
	}
	return volts, amps, nil
}

func validateDecimal(reply string) error {
	_, err := parseDecimal(reply)
	return err
}

func validateOutput(reply string) error {
	_, err := parseOutput(reply)
	return err
}

func validatePair(reply string) error {
	_, _, err := parsePair(reply)
	return err
}
