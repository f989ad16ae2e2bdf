package fileserver

import "path/filepath"

// DefaultContentType is used for unlisted or missing extensions
const DefaultContentType = "application/octet-stream"

// contentTypes is the fixed extension table. Lookups are case-sensitive.
var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".jpg":  "image/jpeg",
	".png":  "image/png",
}

// ContentType returns the MIME type for the extension of path
func ContentType(path string) string {
	if ct, ok := contentTypes[filepath.Ext(path)]; ok {
		return ct
	}
	return DefaultContentType
}
