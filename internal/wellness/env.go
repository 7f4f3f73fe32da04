package wellness

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by LoadEnv.
const EnvPrefix = "WELLNESS"

// Env holds the settings read from the environment at process start.
type Env struct {
	// BackendURL is the base URL of the wellness backend, without the /api path.
	BackendURL string `envconfig:"BACKEND_URL" default:"http://localhost:8000"`
}

// LoadEnv reads WELLNESS_* variables into an Env.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("error reading environment: %w", err)
	}
	return env, nil
}
