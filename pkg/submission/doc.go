// Package submission serialises a form into a flat JSON payload, posts it to
// the form's endpoint and reflects the outcome back onto the form.
//
// Hosts implement Form (the controls) and Navigator (page level effects) and
// call Controller.HandleSubmit from their submit handler. The controller keeps
// an Idle/Submitting state so repeated submits while a request is in flight
// never reach the network twice.
package submission
