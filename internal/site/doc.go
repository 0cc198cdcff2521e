// Package site runs a complete blog build: it discovers Markdown pages under
// the content root, renders each to an HTML fragment, generates the sidebars
// and writes the manifest the theme build consumes.
//
// All entry points (the build command, watch mode and tests) go through Builder.
package site
