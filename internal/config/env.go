package config

import (
	"strconv"
	"strings"
	"time"
)

type env struct {
	get func(string) string
}

func (e env) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e env) first(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(e.get(k)); v != "" {
			return v
		}
	}
	return def
}

func (e env) num(key string, def int) int {
	if v := e.get(key); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}

func (e env) dur(key string, def time.Duration) time.Duration {
	if v := e.get(key); v != "" {
		if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}

func (e env) list(key string, def []string) []string {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// routes is list with a leading slash enforced; "none" yields an empty policy.
func (e env) routes(key string, def []string) []string {
	if strings.EqualFold(strings.TrimSpace(e.get(key)), "none") {
		return []string{}
	}
	items := e.list(key, def)
	out := make([]string, 0, len(items))
	for _, r := range items {
		if !strings.HasPrefix(r, "/") {
			r = "/" + r
		}
		out = append(out, r)
	}
	return out
}
