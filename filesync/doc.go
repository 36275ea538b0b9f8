// Package filesync copies files a user uploaded before starting a plan into
// the workspace of the plan tree, so every agent in the tree can read them.
//
// Local works on a shared filesystem; MinIO performs server-side copies
// between prefixes of an S3 compatible bucket.
package filesync
