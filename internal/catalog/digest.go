package catalog

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// digestRules hashes the rule table. Struct field order makes the JSON stable.
func digestRules(rules []ParameterRule) (string, error) {
	data, err := json.Marshal(rules)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes sha256 with algorithm prefix
func HashBytes(b []byte) string {
	hash := sha256.Sum256(b)
	return fmt.Sprintf("sha256:%x", hash)
}
