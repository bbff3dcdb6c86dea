package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv collects the EXITWRAP_* variables visible to the process. When
// envFile is set its entries are read first; process variables win over
// the file.
func LoadEnv(envFile string, environ []string) (map[string]string, error) {
	env := make(map[string]string)

	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrEnvFileFail, err.Error())
		}
		for k, v := range fileEnv {
			if strings.HasPrefix(k, envPrefix) {
				env[k] = v
			}
		}
	}

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, envPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

const envPrefix = "EXITWRAP_"
