package env

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

// fileEnv holds the values read from the .env file.
var fileEnv map[string]string

// SetupEnvFile loads the first .env file it can find. Containers usually
// inject real environment variables instead, so a missing file is not fatal.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/launchpad to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		values, err := godotenv.Read(envFile)
		if err == nil {
			log.Infof("[Env] Loaded %s", envFile)
			fileEnv = values
			return
		}
	}

	fileEnv = map[string]string{}
	log.Warn("[Env] No .env file found, using process environment only")
}

// Merged returns the process environment overlaid with values read from the
// .env file. The .env file wins.
func Merged() map[string]string {
	out := make(map[string]string, len(fileEnv))
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	for k, v := range fileEnv {
		out[k] = v
	}
	return out
}
