// Package i18n holds the admin message catalog and request language resolution.
package i18n
