// Package filetype classifies on-disk files so that candidates which cannot be
// searched as text (bytecode, executables, shared objects, PDFs, images,
// broken symlinks) are dropped before a session reads them.
package filetype

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileType is the coarse classification of a file
type FileType int

const (
	Unknown FileType = iota // Not recognized; treated as text
	Text
	PythonCompiled
	Pixmap
	ELF
	SharedObject
	PDF
	Binary // Any other recognized binary format
	BrokenSymlink
	Directory
	Special // FIFO, socket or device; opening it may block
)

func (ft FileType) String() string {
	switch ft {
	case Text:
		return "text"
	case PythonCompiled:
		return "python-compiled"
	case Pixmap:
		return "pixmap"
	case ELF:
		return "elf"
	case SharedObject:
		return "shared-object"
	case PDF:
		return "pdf"
	case Binary:
		return "binary"
	case BrokenSymlink:
		return "broken-symlink"
	case Directory:
		return "directory"
	case Special:
		return "special"
	default:
		return "unknown"
	}
}

// Searchable reports whether files of this type may be scanned as text
func (ft FileType) Searchable() bool {
	return ft == Unknown || ft == Text
}

// sniffBytes is the number of leading bytes read for magic number detection
const sniffBytes = 512

// Detector handles detection of files that should not be searched
type Detector struct {
	extensions map[string]FileType
}

// NewDetector creates a detector with the extension database
func NewDetector() *Detector {
	extensions := map[string]FileType{
		// Python bytecode
		".pyc": PythonCompiled,
		".pyo": PythonCompiled,

		// Image files
		".png":  Pixmap,
		".jpg":  Pixmap,
		".jpeg": Pixmap,
		".gif":  Pixmap,
		".bmp":  Pixmap,
		".ico":  Pixmap,
		".xpm":  Pixmap,
		".webp": Pixmap,
		".tiff": Pixmap,
		".tif":  Pixmap,
		".svg":  Text, // SVG is text-based XML

		// Shared objects and executables
		".so":    SharedObject,
		".dylib": SharedObject,
		".dll":   SharedObject,
		".exe":   Binary,
		".a":     Binary,
		".o":     Binary,
		".obj":   Binary,
		".bin":   Binary,

		// Documents
		".pdf": PDF,

		// Font files
		".woff":  Binary,
		".woff2": Binary,
		".ttf":   Binary,
		".otf":   Binary,
		".eot":   Binary,

		// Archive files
		".zip": Binary,
		".tar": Binary,
		".gz":  Binary,
		".bz2": Binary,
		".xz":  Binary,
		".7z":  Binary,
		".jar": Binary,

		// Other binary formats
		".class":   Binary,
		".pickle":  Binary,
		".pkl":     Binary,
		".db":      Binary,
		".sqlite":  Binary,
		".sqlite3": Binary,
	}

	return &Detector{extensions: extensions}
}

// ByExtension classifies a path by its name only (no I/O)
func (d *Detector) ByExtension(path string) FileType {
	base := strings.ToLower(filepath.Base(path))

	// Versioned shared objects: libfoo.so.1.2
	if strings.Contains(base, ".so.") {
		return SharedObject
	}

	ext := filepath.Ext(base)
	if ext == "" {
		return Unknown
	}
	if ft, ok := d.extensions[ext]; ok {
		return ft
	}
	return Unknown
}

// ByContent classifies leading file bytes using magic numbers and a
// control character heuristic
func (d *Detector) ByContent(content []byte) FileType {
	if len(content) == 0 {
		return Unknown
	}

	sample := content
	if len(sample) > sniffBytes {
		sample = sample[:sniffBytes]
	}

	if bytes.HasPrefix(sample, []byte{0x7F, 0x45, 0x4C, 0x46}) {
		// e_type at offset 16, little endian is the common case: 3 = ET_DYN
		if len(sample) > 17 && sample[16] == 3 && sample[17] == 0 {
			return SharedObject
		}
		return ELF
	}
	if bytes.HasPrefix(sample, []byte("%PDF")) {
		return PDF
	}
	if bytes.HasPrefix(sample, []byte{0x89, 0x50, 0x4E, 0x47}) ||
		bytes.HasPrefix(sample, []byte{0xFF, 0xD8, 0xFF}) ||
		bytes.HasPrefix(sample, []byte("GIF8")) {
		return Pixmap
	}
	if bytes.HasPrefix(sample, []byte{0x1F, 0x8B}) ||
		bytes.HasPrefix(sample, []byte{0x50, 0x4B, 0x03, 0x04}) ||
		bytes.HasPrefix(sample, []byte{0x4D, 0x5A}) ||
		bytes.HasPrefix(sample, []byte{0xCA, 0xFE, 0xBA, 0xBE}) {
		return Binary
	}

	// Heuristic: null bytes and a high share of control characters mean binary
	nullBytes := 0
	nonPrintable := 0
	for _, b := range sample {
		if b == 0 {
			nullBytes++
		}
		if b < 0x20 && b != 0x09 && b != 0x0A && b != 0x0D && b != 0x0C {
			nonPrintable++
		}
	}

	if nullBytes > 0 {
		return Binary
	}
	if nonPrintable > len(sample)*30/100 {
		return Binary
	}

	return Text
}

// Detect classifies an on-disk path. Symlinks are followed; a link whose
// target is missing is a BrokenSymlink. Files that cannot be opened are
// reported as Unknown so that the read failure surfaces later as an
// unreadable candidate instead of a silent skip.
func (d *Detector) Detect(path string) FileType {
	linfo, err := os.Lstat(path)
	if err != nil {
		return Unknown
	}

	info := linfo
	if linfo.Mode()&os.ModeSymlink != 0 {
		info, err = os.Stat(path)
		if err != nil {
			return BrokenSymlink
		}
	}

	if info.IsDir() {
		return Directory
	}
	if !info.Mode().IsRegular() {
		return Special
	}

	if ft := d.ByExtension(path); ft != Unknown {
		return ft
	}

	file, err := os.Open(path)
	if err != nil {
		return Unknown
	}
	defer file.Close()

	buffer := make([]byte, sniffBytes)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Unknown
	}

	return d.ByContent(buffer[:n])
}

// IsSearchable is shorthand for Detect(path).Searchable()
func (d *Detector) IsSearchable(path string) bool {
	return d.Detect(path).Searchable()
}
