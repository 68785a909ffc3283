package config

import (
	"fmt"
	"strings"
)

// normalizeAPIKey strips quoting, a Bearer prefix, and control characters that
// tend to sneak into secrets pasted into dashboards.
func normalizeAPIKey(raw string) string {
	key := strings.Trim(strings.TrimSpace(raw), `"'`)
	key = strings.TrimSpace(key)
	const bearer = "bearer "
	if len(key) >= len(bearer) && strings.EqualFold(key[:len(bearer)], bearer) {
		key = strings.TrimSpace(key[len(bearer):])
	}

	key = strings.NewReplacer(`\r`, "", `\n`, "").Replace(key)

	// Only visible ASCII survives, so zero-width and BOM runes are dropped too.
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		if b := key[i]; b >= 33 && b <= 126 {
			out = append(out, b)
		}
	}
	return string(out)
}

// loadKeyPool reads PREFIX, PREFIX_2, PREFIX_3, ... and stops at the first gap.
// Position i in the result is pool index i+1.
func loadKeyPool(lookup func(string) string, prefix string) []string {
	var pool []string
	first := normalizeAPIKey(lookup(prefix))
	if first == "" {
		return nil
	}
	pool = append(pool, first)
	for i := 2; ; i++ {
		key := normalizeAPIKey(lookup(fmt.Sprintf("%s_%d", prefix, i)))
		if key == "" {
			return pool
		}
		pool = append(pool, key)
	}
}
