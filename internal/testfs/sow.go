package testfs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// -----------------------------------------------------------------------------
// Sow Operations - Create source tree from spec
// -----------------------------------------------------------------------------

// SowFileTree creates a source tree from a FileTree specification.
//
// The root parameter specifies the base directory where volumes are created.
// Each volume's MountPoint becomes a subdirectory under root.
//
// For E2E tests, root is "/" and MountPoints are actual tmpfs mounts.
// For integration tests, root is t.TempDir() and MountPoints become subdirs.
func SowFileTree(root string, spec FileTree) error {
	for _, vol := range spec.Volumes {
		if err := sowVolume(root, vol); err != nil {
			return fmt.Errorf("sow volume %s: %w", vol.MountPoint, err)
		}
	}
	return nil
}

// SowFromReader reads a FileTree JSON from the reader and creates the tree.
// Used by testfs-helper CLI tool to read from stdin.
func SowFromReader(r io.Reader, root string) error {
	var spec FileTree
	if err := json.NewDecoder(r).Decode(&spec); err != nil {
		return fmt.Errorf("decode spec: %w", err)
	}
	return SowFileTree(root, spec)
}

func sowVolume(root string, vol Volume) error {
	volPath := resolveVolumePath(root, vol.MountPoint)

	if err := os.MkdirAll(volPath, 0o755); err != nil {
		return fmt.Errorf("create volume dir: %w", err)
	}

	for _, f := range vol.Files {
		if err := sowFile(volPath, f); err != nil {
			return err
		}
	}

	return sowSymlinks(volPath, vol.Symlinks)
}

// resolveVolumePath determines the actual filesystem path for a volume.
func resolveVolumePath(root, mountPoint string) string {
	if root == "" || root == "/" {
		return mountPoint
	}
	return filepath.Join(root, mountPoint)
}

// sowFile writes the same content to every path of the entry.
func sowFile(volPath string, f File) error {
	content, err := f.Content()
	if err != nil {
		return err
	}

	for _, p := range f.Path {
		path := filepath.Join(volPath, p)
		if err := writeFile(path, content); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func sowSymlinks(volPath string, symlinks []Symlink) error {
	for _, sym := range symlinks {
		linkPath := filepath.Join(volPath, sym.Path)
		if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
			return err
		}
		if err := os.Symlink(sym.Target, linkPath); err != nil {
			return fmt.Errorf("symlink %s -> %s: %w", linkPath, sym.Target, err)
		}
	}
	return nil
}
