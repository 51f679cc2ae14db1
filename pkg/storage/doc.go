// Package storage uploads generated documents to S3 compatible object
// storage and hands out presigned download links for them.
package storage
