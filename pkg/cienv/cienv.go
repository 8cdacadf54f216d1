// Package cienv emits pipeline results as KEY=VALUE assignments appended to
// the CI runner's environment file (GITHUB_ENV style).
package cienv

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Write appends one KEY=VALUE line per entry to the file at path. Keys are
// upper-cased when upper is set and emitted in sorted order so output is
// deterministic. A missing or empty path is a logged no-op: outside CI there
// is nowhere to publish to.
func Write(path string, kv map[string]string, upper bool) error {
	if path == "" {
		log.Warn().Msg("no CI env file configured, skipping output")
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn().Str("path", path).Msg("CI env file not found, skipping output")
		return nil
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open CI env file")
	}
	defer func() { _ = f.Close() }()

	log.Info().Interface("env", kv).Msg("setting CI environment variables")
	for _, k := range keys {
		key := k
		if upper {
			key = strings.ToUpper(key)
		}
		if _, err := fmt.Fprintf(f, "\n%s=%s", key, kv[k]); err != nil {
			return errors.Wrap(err, "write CI env file")
		}
	}
	return nil
}
