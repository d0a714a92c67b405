// Package logging provides the structured logging interface shared by the
// sampler, the distributor consumers and the HTTP server. Entries are written
// through zerolog, in JSON or console form, with a standard library adapter
// for places that expect a *log.Logger.
package logging
