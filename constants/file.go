package constants

import "strings"

// Document formats the engine accepts.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// MIME types understood by the backends.
const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeTIFF = "image/tiff"
)

// SupportedMimeTypes holds every MIME type the orchestrator will accept.
var SupportedMimeTypes = map[string]struct{}{
	MimePDF:  {},
	MimePNG:  {},
	MimeJPEG: {},
	MimeTIFF: {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a document format.
// Unknown extensions return "".
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg", "tif", "tiff":
		return IMAGE
	default:
		return ""
	}
}

// MimeToFormat maps a MIME type to a document format. Unknown types return "".
func MimeToFormat(mime string) string {
	switch {
	case mime == MimePDF:
		return PDF
	case strings.HasPrefix(mime, "image/"):
		return IMAGE
	default:
		return ""
	}
}

// ExtToMime guesses a MIME type from a filename extension, for callers that
// only have a path. Unknown extensions return "".
func ExtToMime(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return MimePDF
	case "png":
		return MimePNG
	case "jpg", "jpeg":
		return MimeJPEG
	case "tif", "tiff":
		return MimeTIFF
	default:
		return ""
	}
}
