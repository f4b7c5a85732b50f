package server

import (
	"encoding/json"
	"strings"
)

// IDString normalises an id that arrived either as a JSON number or string.
func IDString(value json.Number) string {
	return strings.TrimSpace(value.String())
}
