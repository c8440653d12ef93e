// Package logging provides structured logging built on zap.
//
// Production logs are JSON to stdout; development logs are colored
// console output with debug level enabled.
package logging
