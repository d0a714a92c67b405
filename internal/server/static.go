package server

import "embed"

//go:embed static
var embeddedStatic embed.FS

type asset struct {
	name        string
	contentType string
}

// dashboardAssets maps routes to files of the static tree.
var dashboardAssets = map[string]asset{
	"/":          {"index.html", "text/html; charset=utf-8"},
	"/index.mjs": {"index.mjs", "text/javascript; charset=utf-8"},
	"/index.js":  {"index.js", "text/javascript; charset=utf-8"},
	"/index.css": {"index.css", "text/css; charset=utf-8"},
}
