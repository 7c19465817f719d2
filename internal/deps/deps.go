// Package deps installs the third-party compiler and runtime binaries
// the drivers wrap, plus the report UI assets. Every artifact is
// pinned by SHA-1; downloads that do not match are discarded.
package deps

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dep pins one downloadable artifact.
type Dep struct {
	// TargetPath is where the artifact lands, relative to the corpus
	// root. Archives (.zip, .tgz) are unpacked into the path minus its
	// extension and the archive itself is removed.
	TargetPath string `yaml:"target"`
	URL        string `yaml:"url"`
	SHA1       string `yaml:"sha1"`
	// Platform restricts the dep to "linux", "darwin" or "all".
	Platform string `yaml:"platform"`
}

// Manifest is an ordered list of deps.
type Manifest []Dep

// DefaultManifest pins the compiler/runtime releases and UI assets the
// stock driver set expects.
var DefaultManifest = Manifest{
	{
		TargetPath: "deps/inklecate_v0.9.0.zip",
		URL:        "https://github.com/inkle/ink/releases/download/0.9.0/inklecate_mac.zip",
		SHA1:       "4f6363fdb7c1f4172b24c9517de9a4faeb73d746",
		Platform:   "darwin",
	},
	{
		TargetPath: "deps/inklecate_v0.9.0.zip",
		URL:        "https://github.com/inkle/ink/releases/download/0.9.0/inklecate_windows_and_linux.zip",
		SHA1:       "3e9c0f4fb6e6ee2feed740ad2783f687e870917d",
		Platform:   "linux",
	},
	{
		TargetPath: "deps/inklecore_v0.9.0_plus.zip",
		URL:        "https://storage.googleapis.com/tsundoku-io-deps/inklecore_mac_v0.9.0_plus.zip",
		SHA1:       "0340d84d574d0d9cd9b313251e7dcd8e8743843f",
		Platform:   "darwin",
	},
	{
		TargetPath: "deps/inklecore_v0.9.0_plus.zip",
		URL:        "https://storage.googleapis.com/tsundoku-io-deps/inklecore_linux_v0.9.0_plus.zip",
		SHA1:       "56e5b556171a9c0af855ea22dfc5f4441f10e5e3",
		Platform:   "linux",
	},
	{
		TargetPath: "deps/inkjs_v1.10.4.zip",
		URL:        "https://github.com/y-lohse/inkjs/archive/v1.10.4.zip",
		SHA1:       "4ea267b8b56a6eb34d248509d2c305b31f30c227",
		Platform:   "all",
	},
	{
		TargetPath: "deps/tachyons.min.css",
		URL:        "https://unpkg.com/tachyons@4.12.0/css/tachyons.min.css",
		SHA1:       "6d136aca9df01d6632c0f37023555c285391115a",
		Platform:   "all",
	},
	{
		TargetPath: "deps/mithril.min.js",
		URL:        "https://unpkg.com/mithril@2.0.4/mithril.min.js",
		SHA1:       "9e5a41aa225db74dfefdb0b44e3699959b5ed7e4",
		Platform:   "all",
	},
}

// LoadManifest reads a yaml manifest file.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Installer downloads and unpacks a manifest under a corpus root.
type Installer struct {
	Root string
	// Log receives one line per action. Nil disables logging.
	Log io.Writer
	// Platform defaults to runtime.GOOS.
	Platform string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Install brings every applicable dep up to date. With checkOnly it
// downloads nothing and reports via the stale return value whether an
// install run is needed.
func (ins *Installer) Install(manifest Manifest, checkOnly bool) (stale bool, err error) {
	platform := ins.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	for _, dep := range manifest {
		if dep.Platform != "all" && dep.Platform != platform {
			continue
		}
		updated, err := ins.installOne(dep, checkOnly)
		if err != nil {
			return stale, err
		}
		stale = stale || updated
	}
	return stale, nil
}

func (ins *Installer) installOne(dep Dep, checkOnly bool) (bool, error) {
	localPath := filepath.Join(ins.Root, dep.TargetPath)
	isArchive := isArchivePath(localPath)
	targetDir := strings.TrimSuffix(localPath, filepath.Ext(localPath))
	stampPath := filepath.Join(targetDir, ".stamp")

	// Up to date: plain files match by hash, archives by stamp.
	if !isArchive && hashLocalFile(localPath) == dep.SHA1 {
		return false, nil
	}
	if isArchive && readFileTrimmed(stampPath) == dep.SHA1 {
		return false, nil
	}
	if checkOnly {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return false, err
	}
	if hashLocalFile(localPath) != dep.SHA1 {
		if err := ins.download(dep, localPath); err != nil {
			return false, err
		}
	}

	if isArchive {
		ins.logf("extracting %s into %s", localPath, targetDir)
		if err := os.RemoveAll(targetDir); err != nil {
			return false, err
		}
		if err := extract(localPath, targetDir); err != nil {
			return false, err
		}
		if err := stripSingleRoot(targetDir); err != nil {
			return false, err
		}
		if err := os.WriteFile(stampPath, []byte(dep.SHA1), 0o644); err != nil {
			return false, err
		}
		if err := os.Remove(localPath); err != nil {
			return false, err
		}
	}
	return true, nil
}

// download fetches the artifact to a temp path, verifies its SHA-1 and
// renames it into place.
func (ins *Installer) download(dep Dep, localPath string) error {
	ins.logf("downloading %s from %s", localPath, dep.URL)

	client := ins.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(dep.URL)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", dep.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: %s", dep.URL, resp.Status)
	}

	tmpPath := localPath + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	hasher := sha1.New()
	_, err = io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("downloading %s: %w", dep.URL, err)
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != dep.SHA1 {
		os.Remove(tmpPath)
		return fmt.Errorf("sha1 mismatch for %s: expected %s, was %s", dep.URL, dep.SHA1, actual)
	}
	return os.Rename(tmpPath, localPath)
}

func (ins *Installer) logf(format string, args ...any) {
	if ins.Log != nil {
		fmt.Fprintf(ins.Log, format+"\n", args...)
	}
}

func isArchivePath(path string) bool {
	return strings.HasSuffix(path, ".zip") || strings.HasSuffix(path, ".tgz")
}

func hashLocalFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	hasher := sha1.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return ""
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func readFileTrimmed(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func extract(archivePath, targetDir string) error {
	if strings.HasSuffix(archivePath, ".tgz") {
		return extractTgz(archivePath, targetDir)
	}
	return extractZip(archivePath, targetDir)
}

func extractZip(archivePath, targetDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		target, err := safeJoin(targetDir, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, file.Mode().Perm()|0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		// Keep the archive's permission bits but guarantee the owner
		// can read and execute what the zip marked executable.
		mode := file.Mode().Perm() | 0o644
		in, err := file.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			in.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTgz(archivePath, targetDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", archivePath, err)
		}
		target, err := safeJoin(targetDir, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			mode := os.FileMode(header.Mode).Perm() | 0o644
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
			if err != nil {
				return err
			}
			_, err = io.Copy(out, tr)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
		}
	}
}

// safeJoin joins an archive entry name under dir, rejecting entries
// that would escape it.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, dir)
	}
	return target, nil
}

// stripSingleRoot rebases an archive that unpacked into one root
// folder, so deps/foo/foo-1.2.3/bin becomes deps/foo/bin.
func stripSingleRoot(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}
	subdir := filepath.Join(dir, entries[0].Name())
	inner, err := os.ReadDir(subdir)
	if err != nil {
		return err
	}
	for _, entry := range inner {
		if err := os.Rename(filepath.Join(subdir, entry.Name()), filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return os.Remove(subdir)
}
