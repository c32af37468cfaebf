package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt is Getenv for integers. Unparsable values fall back.
func GetenvInt(key string, fallback int) int {
	n, err := strconv.Atoi(Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// GetenvFloat is Getenv for floats. Unparsable values fall back.
func GetenvFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(Getenv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return f
}

// GetenvBool accepts 1/true/yes/on (case-insensitive) as true.
func GetenvBool(key string, fallback bool) bool {
	switch strings.ToLower(Getenv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// GetenvDuration parses values like "5s" or "24h".
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

// GetenvList splits a comma-separated variable, dropping blanks.
func GetenvList(key string, fallback []string) []string {
	raw := Getenv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
