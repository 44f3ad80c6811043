package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/subosito/gotenv"
)

// LoadDotEnv exports the variables of a .env file that are not already set
// in the process environment. A missing file is not an error.
func LoadDotEnv(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat env file: %w", err)
	}
	if err := gotenv.Load(path); err != nil {
		return false, fmt.Errorf("load env file: %w", err)
	}
	return true, nil
}
