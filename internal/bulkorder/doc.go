// Package bulkorder places one order per recipient in a background job.
//
// The HTTP layer validates a Form into a Submission, turns it into a
// Request and hands it to the job queue with Submit. The queued Task
// calls Processor.Process, which resolves the tenant scope from ids,
// creates every order in its own transaction and then runs the
// post-creation sequence: placed and paid notifications, the paid
// audit entry, invoice generation and the buyer and attendee e-mails.
//
// Host subsystems are reached only through the narrow interfaces in
// host.go. The Postgres adapter in internal/repository implements the
// storage side; internal/invoice, internal/notify and internal/ordermail
// implement the rest.
package bulkorder
