// Package ui contains the view-model primitives of the admin's server-driven
// components: columns, filters, buttons and the effects an interaction produces.
// The browser renders these; no markup is produced server side.
package ui
