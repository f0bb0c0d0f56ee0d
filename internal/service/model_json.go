package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// decodeModelJSON decodifica el primer objeto JSON de una respuesta del modelo,
// tolerando fences markdown, BOM y texto alrededor.
func decodeModelJSON(raw string, out any) error {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
	s = fenceEnd.ReplaceAllString(fenceStart.ReplaceAllString(s, ""), "")
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return fmt.Errorf("no json object in model response")
	}
	dec := json.NewDecoder(strings.NewReader(s[start:]))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}
