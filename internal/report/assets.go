package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// staticAssets are the report UI files copied verbatim from the corpus
// root into the output directory when present.
var staticAssets = []string{
	"index.html",
	filepath.Join("deps", "tachyons.min.css"),
	filepath.Join("deps", "mithril.min.js"),
}

// fixtureDirs are the corpus directories mirrored into the output so
// the report can link to sources, inputs and transcripts.
var fixtureDirs = []string{"ink", "bytecode"}

// CopyAssets populates outDir with the static report UI and a copy of
// the fixture corpus. Stale fixture copies from earlier runs are
// replaced. Missing assets are skipped; a corpus without the HTML
// front end still produces a usable summary.json.
func CopyAssets(root, outDir string) error {
	for _, asset := range staticAssets {
		src := filepath.Join(root, asset)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(outDir, filepath.Base(asset))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copying %s: %w", asset, err)
		}
	}

	for _, dir := range fixtureDirs {
		src := filepath.Join(root, dir)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(outDir, dir)
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("clearing stale %s: %w", dst, err)
		}
		if err := copyTree(src, dst); err != nil {
			return fmt.Errorf("copying %s: %w", dir, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}
