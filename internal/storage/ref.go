package storage

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// RefPrefix is the URL prefix under which stored files are served.
const RefPrefix = "/uploads/"

// Well-known folders.
const (
	FolderFloorplans = "floorplans"
	FolderQRCodes    = "qrcodes"
)

var (
	// ErrNotFound is returned when a referenced file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidRef is returned for references outside the upload tree.
	ErrInvalidRef = errors.New("invalid file reference")
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	validFolder = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// SanitizeName replaces every character outside [a-zA-Z0-9.-] with '-'.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = ""
	}
	name = unsafeChars.ReplaceAllString(name, "-")
	if name == "" {
		name = "file"
	}
	return name
}

// FileName returns the stored name of an upload: "<unix-ms>-<sanitized name>".
func FileName(name string, at time.Time) string {
	return fmt.Sprintf("%d-%s", at.UnixMilli(), SanitizeName(name))
}

// Ref builds the reference stored on floorplans and devices.
func Ref(folder, file string) string {
	return RefPrefix + folder + "/" + file
}

// ParseRef splits a reference into folder and file name.
func ParseRef(ref string) (folder, file string, err error) {
	rest, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	folder, file, ok = strings.Cut(rest, "/")
	if !ok || !validFolder.MatchString(folder) || file == "" || strings.Contains(file, "/") ||
		file == "." || file == ".." {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return folder, file, nil
}

func checkFolder(folder string) error {
	if !validFolder.MatchString(folder) {
		return fmt.Errorf("%w: folder %q", ErrInvalidRef, folder)
	}
	return nil
}
