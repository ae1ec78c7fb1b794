package store

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	xz "github.com/ulikunitz/xz"
)

// Extractor unpacks an archive into dest, dropping the archive's top-level
// directory (the equivalent of tar --strip-components=1).
type Extractor interface {
	Extract(archivePath, dest string) error
}

// ArchiveExtractor 根据文件后缀选择 .tar.xz / .tar.gz / .zip 解压
type ArchiveExtractor struct{}

func (ArchiveExtractor) Extract(archivePath, dest string) error {
	switch {
	case strings.HasSuffix(archivePath, ".tar.xz"):
		return extractTarXzFile(archivePath, dest)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		return extractTarGzFile(archivePath, dest)
	case strings.HasSuffix(archivePath, ".zip"):
		return extractZipFile(archivePath, dest)
	default:
		return fmt.Errorf("unsupported file format: %s", archivePath)
	}
}

// stripTopLevel 去掉归档内路径的第一层目录；顶层目录本身返回 false
func stripTopLevel(name string) (string, bool) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "/"))
	parts := strings.Split(clean, "/")
	if len(parts) < 2 {
		return "", false
	}
	return path.Join(parts[1:]...), true
}

// safeJoin rejects entries that would land outside dest.
func safeJoin(dest, rel string) (string, error) {
	root := filepath.Clean(dest)
	target := filepath.Join(root, filepath.FromSlash(rel))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal path in archive: %s", rel)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeSymlink(target, linkname string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	_ = os.Remove(target)
	return os.Symlink(linkname, target)
}

func extractTar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		rel, ok := stripTopLevel(hdr.Name)
		if !ok {
			continue
		}
		target, err := safeJoin(dest, rel)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(target, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			linkRel, ok := stripTopLevel(hdr.Linkname)
			if !ok {
				return fmt.Errorf("illegal hard link in archive: %s", hdr.Linkname)
			}
			src, err := safeJoin(dest, linkRel)
			if err != nil {
				return err
			}
			if err := os.Link(src, target); err != nil {
				return err
			}
		default:
			log.Printf("skip unsupported tar entry %s (type %c)", hdr.Name, hdr.Typeflag)
		}
	}
	return nil
}

func extractTarGzFile(archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gzReader.Close()

	return extractTar(gzReader, dest)
}

func extractTarXzFile(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return err
	}
	return extractTar(xzr, dest)
}

func extractZipFile(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		rel, ok := stripTopLevel(f.Name)
		if !ok {
			continue
		}
		target, err := safeJoin(dest, rel)
		if err != nil {
			return err
		}
		if err := extractZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, target string) error {
	mode := f.Mode()
	if mode.IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if mode&os.ModeSymlink != 0 {
		linkname, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		return writeSymlink(target, string(linkname))
	}
	return writeFile(target, rc, mode)
}
