// Package attachment implements the file attachment field: an ordered list of
// selected files validated against declarative constraints (accepted media
// types, per-file size limit, item count bounds) and mirrored onto a View.
//
// The Controller is UI agnostic. Hosts call Select when the user picks files
// and Remove when an entry's removal control is used; the controller then
// validates, re-renders the list and syncs the native file collection through
// the View. Validation failures are shown, never returned.
//
// Validate has no browser dependency, so the uploads component
// (components/uploads) reuses it to check multipart uploads server side before
// handing accepted files to a store.Store.
package attachment
