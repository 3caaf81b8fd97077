// Package filenorm normalizes corpus filenames and prunes duplicate files so
// that resultset directories stay join-able by basename.
package filenorm

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFKD and drops the combining marks, turning
// "Árbol" into "Arbol".
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeName lowercases a name to the [a-z0-9_] alphabet: diacritics are
// stripped, anything else becomes an underscore, and underscore runs
// collapse.
func NormalizeName(name string) string {
	ascii, _, err := transform.String(stripMarks, name)
	if err != nil {
		ascii = name
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_':
			fallthrough
		default:
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// Plan describes the actions to perform: duplicate files to delete, keyed by
// checksum, and pending renames from original path to new basename.
type Plan struct {
	Duplicates map[string][]string
	Renames    map[string]string
	Kept       map[string]string
}

func md5sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PlanActions inspects the files and decides which duplicates to drop (the
// shortest path of each checksum group survives) and which survivors need a
// normalized rename. Collisions get numeric suffixes.
func PlanActions(files []string) (*Plan, error) {
	plan := &Plan{
		Duplicates: map[string][]string{},
		Renames:    map[string]string{},
		Kept:       map[string]string{},
	}

	for _, file := range files {
		sum, err := md5sum(file)
		if err != nil {
			return nil, fmt.Errorf("checksum %s: %w", file, err)
		}
		existing, seen := plan.Kept[sum]
		if !seen {
			plan.Kept[sum] = file
			continue
		}
		keep := existing
		if len(file) < len(existing) {
			keep = file
		}
		drop := existing
		if keep == existing {
			drop = file
		}
		plan.Kept[sum] = keep
		plan.Duplicates[sum] = append(plan.Duplicates[sum], drop)
	}

	seen := map[string]bool{}
	for _, file := range plan.Kept {
		base := filepath.Base(file)
		ext := strings.ToLower(filepath.Ext(base))
		newBase := NormalizeName(strings.TrimSuffix(base, filepath.Ext(base)))
		candidate := newBase + ext
		for index := 1; seen[candidate]; index++ {
			candidate = fmt.Sprintf("%s_%d%s", newBase, index, ext)
		}
		seen[candidate] = true
		if candidate != base {
			plan.Renames[file] = candidate
		}
	}

	return plan, nil
}

// Hooks parameterize Execute with confirmation and reporting callbacks, so
// the CLI can plug in prompts, --yes and --quiet behavior.
type Hooks struct {
	ConfirmDelete func(md5, file string) bool
	ConfirmRename func(original, newName string) bool
	ExplainDelete func(file string)
	ExplainRename func(original, newName string)
}

// Execute applies the plan through the hooks.
func Execute(plan *Plan, hooks Hooks) error {
	for sum, duplicates := range plan.Duplicates {
		for _, file := range duplicates {
			if hooks.ConfirmDelete != nil && !hooks.ConfirmDelete(sum, file) {
				continue
			}
			if err := os.Remove(file); err != nil {
				return err
			}
			if hooks.ExplainDelete != nil {
				hooks.ExplainDelete(file)
			}
		}
	}
	for original, newName := range plan.Renames {
		if hooks.ConfirmRename != nil && !hooks.ConfirmRename(original, newName) {
			continue
		}
		newPath := filepath.Join(filepath.Dir(original), newName)
		if err := os.Rename(original, newPath); err != nil {
			return err
		}
		if hooks.ExplainRename != nil {
			hooks.ExplainRename(original, newName)
		}
	}
	return nil
}
