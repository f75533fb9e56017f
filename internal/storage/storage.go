package storage

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid photo name")

// checkName rejects anything that is not a plain file name.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
