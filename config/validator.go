package config

import (
	"fmt"
	"strings"

	"github.com/input-output-hk/reposync/errors"
)

// Validate checks that every source has a usable name and a URL, and that
// no two sources share a working-copy directory.
func (c *Config) Validate() error {
	var problems []string
	seen := make(map[string]string)

	for i, src := range c.Sources() {
		field := "base"
		if i > 0 {
			field = fmt.Sprintf("overlay[%d]", i-1)
		}

		if err := validateName(src.Name); err != nil {
			problems = append(problems, fmt.Sprintf("%s.name: %s", field, err))
		} else if prev, dup := seen[src.Name]; dup {
			problems = append(problems, fmt.Sprintf("%s.name: %q already used by %s", field, src.Name, prev))
		} else {
			seen[src.Name] = field
		}

		if strings.TrimSpace(src.URL) == "" {
			problems = append(problems, fmt.Sprintf("%s.url: must not be empty", field))
		}
	}

	if len(problems) > 0 {
		return errors.New(
			errors.CodeInvalidConfig,
			fmt.Sprintf("configuration validation failed: %s", strings.Join(problems, "; ")),
		)
	}

	return nil
}

// validateName rejects names that do not denote a single directory entry.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("%q is not a directory name", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%q must not contain path separators", name)
	}
	return nil
}
