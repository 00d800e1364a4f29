// Package wren generates localized dialog resources from a property schema
// and a layered library of templates.
package wren

// Version is the wren release version.
const Version = "0.1.0"
