// Package strategy maps free-form order tags onto canonical strategy codes.
package strategy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoTag is the bucket for trades whose tag does not yield a strategy code.
const NoTag = "NO_TAG"

var digitRun = regexp.MustCompile(`[0-9]+`)

// Normalize extracts the first numeric run of tag and formats it as S%03d,
// so "s1", "S001" and "S001-ZeroTouch" all map to "S001". Tags without a
// positive number map to NoTag.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return NoTag
	}
	m := digitRun.FindString(tag)
	if m == "" {
		return NoTag
	}
	m = strings.TrimLeft(m, "0")
	if m == "" {
		return NoTag
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return NoTag
	}
	return fmt.Sprintf("S%03d", n)
}

// Reportable reports whether a code belongs in persisted results.
func Reportable(code string) bool {
	return code != "" && code != NoTag
}
