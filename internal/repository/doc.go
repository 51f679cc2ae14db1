// Package repository is the Postgres adapter behind the bulk order
// processor, the form handler and the permission checks.
package repository
