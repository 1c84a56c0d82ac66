package config

import (
	"log"
	"os"
	"strings"
)

// Required environment keys. Missing values are fatal at boot: a process
// that cannot reach its database, gateway or vendor should never start.
var required = []string{
	"PORT",
	"POSTGRES_URL",
	"JWT_SECRET",
	"OPENAI_API_KEY",
	"PAYOS_CLIENT_ID",
	"PAYOS_API_KEY",
	"PAYOS_CHECKSUM_KEY",
	"SMTP_PASSWORD",
}

// MustValidate checks every required key eagerly and exits naming all
// missing ones at once rather than failing on the first.
func MustValidate() {
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
}

// Getenv with a default, for the optional knobs.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
