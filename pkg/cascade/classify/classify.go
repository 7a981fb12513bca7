// Package classify decides, from a filename alone, whether a file is an
// archive cascade can extract and how it must be opened. It recognizes
// single-volume ZIP, 7z and RAR archives as well as the two multi-volume
// naming schemes: numbered suffixes (name.7z.001) and partN suffixes
// (name.part01.rar).
//
// All functions in this package are pure; they never touch the filesystem.
package classify

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Kind is the archive kind derived from a filename.
type Kind int

const (
	// Unsupported is any file cascade does not extract.
	Unsupported Kind = iota
	// Singlepart is a self-contained archive (.zip, .7z, .7zip, .rar).
	Singlepart
	// Multipart is a volume of a multi-volume set other than the first.
	// Such files are never opened directly.
	Multipart
	// MultipartFirst is the first volume of a multi-volume set. Opening it
	// extracts the whole set.
	MultipartFirst
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Singlepart:
		return "singlepart"
	case Multipart:
		return "multipart"
	case MultipartFirst:
		return "multipart-first"
	default:
		return "unsupported"
	}
}

// Format is the container format of an archive.
type Format int

const (
	// FormatUnknown is used for unsupported files.
	FormatUnknown Format = iota
	// FormatZip covers .zip archives.
	FormatZip
	// FormatSevenZip covers .7z and .7zip archives and their numbered volumes.
	FormatSevenZip
	// FormatRar covers .rar archives and .partN.rar volumes.
	FormatRar
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatSevenZip:
		return "7z"
	case FormatRar:
		return "rar"
	default:
		return "unknown"
	}
}

var (
	// rarVolumePattern matches name.part<digits>.rar.
	rarVolumePattern = regexp.MustCompile(`(?i)^.+\.part([0-9]+)\.rar$`)

	// sevenZipVolumePattern matches name.7z.<digits> and name.7zip.<digits>.
	sevenZipVolumePattern = regexp.MustCompile(`(?i)^.+\.(?:7z|7zip)\.([0-9]+)$`)

	// singlepartPattern matches the plain archive extensions.
	singlepartPattern = regexp.MustCompile(`(?i)^.+\.(7z|7zip|zip|rar)$`)
)

// volumeCounter returns the digits that number a multi-volume archive and
// the format of the set. ok is false if name is not a volume.
func volumeCounter(name string) (digits string, format Format, ok bool) {
	if m := rarVolumePattern.FindStringSubmatch(name); m != nil {
		return m[1], FormatRar, true
	}
	if m := sevenZipVolumePattern.FindStringSubmatch(name); m != nil {
		return m[1], FormatSevenZip, true
	}
	return "", FormatUnknown, false
}

// IsMultipartArchive reports whether name is any volume of a multi-volume
// archive.
func IsMultipartArchive(name string) bool {
	_, _, ok := volumeCounter(name)
	return ok
}

// IsFirstMultipartArchive reports whether name is the first volume of a
// multi-volume archive, i.e. its volume counter has the numeric value 1
// regardless of zero padding (part1, part001, 7z.1, 7z.001).
func IsFirstMultipartArchive(name string) bool {
	digits, _, ok := volumeCounter(name)
	return ok && strings.TrimLeft(digits, "0") == "1"
}

// IsSinglepartArchive reports whether name is a self-contained archive.
// Volumes of multi-volume sets are never singlepart, even when they end in
// .rar.
func IsSinglepartArchive(name string) bool {
	if IsMultipartArchive(name) {
		return false
	}
	return singlepartPattern.MatchString(name)
}

// Classify returns the kind of the archive named name.
func Classify(name string) Kind {
	switch {
	case IsFirstMultipartArchive(name):
		return MultipartFirst
	case IsMultipartArchive(name):
		return Multipart
	case IsSinglepartArchive(name):
		return Singlepart
	default:
		return Unsupported
	}
}

// FormatOf returns the container format implied by name.
func FormatOf(name string) Format {
	if _, format, ok := volumeCounter(name); ok {
		return format
	}
	m := singlepartPattern.FindStringSubmatch(name)
	if m == nil {
		return FormatUnknown
	}
	switch strings.ToLower(m[1]) {
	case "zip":
		return FormatZip
	case "rar":
		return FormatRar
	default:
		return FormatSevenZip
	}
}

// ArchiveFile is a file found during the walk together with its
// classification.
type ArchiveFile struct {
	// Path is the absolute path to the file.
	Path string

	// Name is the base name of the file.
	Name string

	// Kind is the archive kind derived from Name.
	Kind Kind

	// Format is the container format derived from Name.
	Format Format
}

// New classifies the file at path.
func New(path string) ArchiveFile {
	name := filepath.Base(path)
	return ArchiveFile{
		Path:   path,
		Name:   name,
		Kind:   Classify(name),
		Format: FormatOf(name),
	}
}

// Extractable reports whether the file is opened directly by the
// extractor, which is the case for singlepart archives and first volumes.
func (a ArchiveFile) Extractable() bool {
	return a.Kind == Singlepart || a.Kind == MultipartFirst
}
