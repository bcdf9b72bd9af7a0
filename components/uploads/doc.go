// Package uploads is the server side of the attachment field: a net/http
// component that accepts multipart uploads, enforces the same constraints as
// the attachment controller and persists accepted files through a
// store.Store.
//
// Typical wiring:
//
//	local, _ := store.NewLocalStore("./var/uploads", "/files")
//	c := uploads.New(
//		uploads.WithStore(local),
//		uploads.WithConstraints(constraints),
//	)
//	c.RegisterRoutes(mux, "/")
package uploads
