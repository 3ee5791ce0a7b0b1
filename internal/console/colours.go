// Package console holds the terminal colours used when printing routes
// and request lines in development.
package console

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // bright black

	ResetColor = "\033[0m"
)

var MethodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

// Method pads and colours an HTTP method for display.
func Method(method string) string {
	padded := fmt.Sprintf(" %-7s", method)
	if color, ok := MethodColors[method]; ok {
		return color + padded + ResetColor
	}
	return Gray + padded + ResetColor
}

// LogRoute prints one registered route.
func LogRoute(source, method, path string) {
	log.Debug().Str("source", source).Msgf("[%-19s] %s", Method(method), path)
}
