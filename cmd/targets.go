package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/orgextract/internal/extractor"
)

// collectTargets merges positional arguments, --target flags, a targets file
// and configured targets, in that order. Duplicates keep their first
// position.
func collectTargets(args, flagged []string, file string, configured []string) ([]extractor.Target, error) {
	var raw []string
	raw = append(raw, args...)
	raw = append(raw, flagged...)
	if file != "" {
		fromFile, err := readTargetsFile(file)
		if err != nil {
			return nil, err
		}
		raw = append(raw, fromFile...)
	}
	raw = append(raw, configured...)

	seen := make(map[string]struct{}, len(raw))
	targets := make([]extractor.Target, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if err := validateTarget(r); err != nil {
			return nil, err
		}
		key := extractor.Target(r).MainURL()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, extractor.Target(r))
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets: pass URLs as arguments, --target, --targets-file or set targets in config")
	}
	return targets, nil
}

func readTargetsFile(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()
	return parseTargets(f)
}

// parseTargets reads one URL per line. Blank lines and lines starting with
// '#' are skipped.
func parseTargets(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return out, nil
}

func validateTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid target %q: expected an http(s) URL", raw)
	}
	return nil
}
