package mdrender

import (
	"strings"

	"github.com/inful/mdfp"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/frontmatter"
)

// contentFingerprint hashes the canonical form of a page source. Field
// order and newline style do not affect the result, and any stored
// fingerprint field is excluded so the value survives its own upsert.
func contentFingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	canonical := ""
	if len(forHash) > 0 {
		serialized, err := frontmatter.SerializeYAML(forHash)
		if err != nil {
			return "", err
		}
		canonical = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(canonical, string(body)), nil
}
