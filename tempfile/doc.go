// Package tempfile provides scoped temporary files for fetched and uploaded content.
//
// Files are named upload_<uuid>_<name> so the original extension survives for
// dispatch. The owning scope releases a Resource with defer; release deletes
// the file once and tolerates it having already disappeared.
package tempfile
