// Package aggregates defines the write boundaries of the academy domain:
// enrollment, payment, attempt and certification. Each contract names the
// invariants its implementation enforces inside a single transaction, and
// errors.go holds the error kinds every layer above reports.
package aggregates
