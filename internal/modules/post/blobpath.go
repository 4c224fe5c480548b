package post

import (
	"fmt"
	"strings"
)

// SizeOriginal is the size label given to the image exactly as uploaded.
const SizeOriginal = "original"

// BuildImagePath builds the storage key for a post image:
// posts/<postID>/<imageID>-<sizeLabel><extension>. The format is a stable
// contract; clients read URLs built from it directly.
func BuildImagePath(postID, imageID, sizeLabel, extension string) string {
	return fmt.Sprintf("posts/%s/%s-%s%s", postID, imageID, sizeLabel, extension)
}

// ReplaceSize rewrites the trailing <sizeLabel><extension> segment of a
// storage key. A path without a '-' separator is returned unchanged.
func ReplaceSize(path, newSizeLabel, newExtension string) string {
	parts := strings.Split(path, "-")
	if len(parts) < 2 {
		return path
	}
	prefix := strings.Join(parts[:len(parts)-1], "-")
	return prefix + "-" + newSizeLabel + newExtension
}
