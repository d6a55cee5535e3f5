package config

import (
	"log"
	"strings"
)

// Setting is a required environment variable and whether it was provided.
type Setting struct {
	Env string
	Set bool
}

func Str(env, value string) Setting { return Setting{Env: env, Set: value != ""} }

func Bytes(env string, value []byte) Setting { return Setting{Env: env, Set: len(value) > 0} }

// Require stops the process when any setting is missing. Every missing name
// is reported at once so a misconfigured deploy fails with the full list.
func Require(service string, settings ...Setting) {
	if miss := missing(settings); len(miss) > 0 {
		log.Fatalf("%s: missing required env %s", service, strings.Join(miss, ", "))
	}
}

func missing(settings []Setting) []string {
	var out []string
	for _, s := range settings {
		if !s.Set {
			out = append(out, s.Env)
		}
	}
	return out
}
