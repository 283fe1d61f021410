// Package memory provides an in-memory storage implementation suitable for
// development, testing, and single-instance deployments. All data is lost
// on restart; production deployments should provide persistent
// implementations of the storage interfaces instead.
package memory
