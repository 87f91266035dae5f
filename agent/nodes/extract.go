package turnnode

import (
	"encoding/json"
	"fmt"
	"regexp"

	contractx "github.com/nanxi-ai/smartcs/agent/contract"
)

var (
	fencedObjectRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareObjectRe   = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractObject pulls a JSON object out of a free-text model reply: first a
// fenced code block containing an object, then the first top-level {...}
// span. Failures wrap ErrSchemaViolation so callers can fall back locally.
func ExtractObject(text string, v any) error {
	if m := fencedObjectRe.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
		// A malformed fenced block may still wrap a usable bare object.
	}
	if m := bareObjectRe.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), v); err != nil {
			return fmt.Errorf("%w: decode extracted object: %v", contractx.ErrSchemaViolation, err)
		}
		return nil
	}
	return fmt.Errorf("%w: no JSON object in model reply", contractx.ErrSchemaViolation)
}
