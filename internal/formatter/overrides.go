package formatter

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/shell"
)

// overridesFile is the TOML layout of FORMATTERS_FILE:
//
//	[formatters]
//	python = "ruff format -"
//	rust   = "rustfmt --emit stdout"
//	java   = ""  # disables java
type overridesFile struct {
	Formatters map[string]string `toml:"formatters"`
}

// LoadOverrides reads a TOML overrides file into tag -> argv.
// An empty command maps to an empty argv, which disables the tag.
func LoadOverrides(path string, logger *zap.Logger) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read formatters file")
	}
	return ParseOverrides(string(data), logger)
}

// ParseOverrides parses TOML content. Entries that fail to split are logged and skipped.
func ParseOverrides(content string, logger *zap.Logger) (map[string][]string, error) {
	var file overridesFile
	if _, err := toml.Decode(content, &file); err != nil {
		return nil, errors.Wrap(err, "decode formatters file")
	}

	overrides := make(map[string][]string, len(file.Formatters))
	for tag, line := range file.Formatters {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if strings.TrimSpace(line) == "" {
			overrides[tag] = nil
			continue
		}

		argv, err := shell.Fields(line, os.Getenv)
		if err != nil || len(argv) == 0 {
			logger.Warn("skipping invalid formatter command",
				zap.String("language", tag),
				zap.String("command", line),
				zap.Error(err),
			)
			continue
		}
		overrides[tag] = argv
	}

	return overrides, nil
}
