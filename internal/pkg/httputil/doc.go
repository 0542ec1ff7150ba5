// Package httputil provides small helpers for writing consistent JSON
// responses from API handlers. Every error leaving the API goes through
// this package so the envelope shape stays uniform.
package httputil
