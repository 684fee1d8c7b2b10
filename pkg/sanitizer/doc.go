// Package sanitizer normalizes free-form request fields before validation
// and storage.
//
// All functions are idempotent. Invalid input is never an error here: the
// validator rejects whatever normalization leaves empty.
package sanitizer
