package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputGuard confines every written document to the configured output
// directory.
type OutputGuard struct {
	outputDirectory string
}

// NewOutputGuard creates a guard for the given directory. The directory
// does not need to exist yet; it is created on first write.
func NewOutputGuard(outputDirectory string) (*OutputGuard, error) {
	if outputDirectory == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	abs, err := filepath.Abs(outputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return &OutputGuard{outputDirectory: abs}, nil
}

// OutputDirectory returns the confined directory.
func (g *OutputGuard) OutputDirectory() string {
	return g.outputDirectory
}

// ResolveTarget turns a bare filename into an absolute path inside the
// output directory, rejecting names that would escape it.
func (g *OutputGuard) ResolveTarget(fileName string) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("file name cannot be empty")
	}
	// Strip anything that could smuggle in a traversal.
	fileName = strings.ReplaceAll(fileName, "\x00", "")

	target := filepath.Join(g.outputDirectory, filepath.Base(fileName))
	within, err := g.isWithinOutputDirectory(target)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside the output directory: %s", fileName)
	}
	return target, nil
}

// isWithinOutputDirectory performs a symlink-aware prefix check of the
// target against the configured directory.
func (g *OutputGuard) isWithinOutputDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(g.outputDirectory)

	// If the directory exists behind a symlink, compare against the real
	// location too.
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	dirWithSep := cleanDir + string(filepath.Separator)
	realDirWithSep := realDir + string(filepath.Separator)

	return strings.HasPrefix(cleanPath, dirWithSep) || cleanPath == cleanDir ||
		strings.HasPrefix(cleanPath, realDirWithSep) || cleanPath == realDir, nil
}

// EnsureDirectory creates the output directory if it is missing.
func (g *OutputGuard) EnsureDirectory() error {
	if err := os.MkdirAll(g.outputDirectory, 0o750); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", g.outputDirectory, err)
	}
	return nil
}
