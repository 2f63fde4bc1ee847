// Package dashboard provides the embedded override panel for envmon.
//
// The panel is a single html/template page compiled into the binary, so a
// monitor ships as one file with no external assets. The server package
// renders it at "/" with the current reading and actuator states; inline
// JavaScript then follows "/api/sse" to keep the page live.
package dashboard

import "embed"

// PanelTemplate is the path of the panel page inside [Assets].
const PanelTemplate = "assets/panel.html"

// Assets is an embedded filesystem containing the panel web UI.
//
// The filesystem structure is:
//
//	assets/
//	  panel.html    - Override panel template with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
