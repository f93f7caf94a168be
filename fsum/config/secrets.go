package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"
)

// GetSecret reads a credential from the environment. Secrets are never read from
// config files; an unset or blank variable is a configuration error.
func GetSecret(key string) (string, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", common.ConfigError("get secret", fmt.Errorf("%w: %s", common.ErrSecretMissing, key))
	}
	return value, nil
}
