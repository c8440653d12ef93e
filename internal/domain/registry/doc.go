// Package registry stores installed packages for TabMirror.
//
// The install flow writes a package here once its pending approval is
// consumed. Packages are cached in memory and persisted as JSON files
// under storage/packages/{id}.json.
package registry
