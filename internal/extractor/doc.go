// Package extractor defines the core types and interfaces shared by the
// organization extraction engine: targets, records, selector chains, person
// candidates, session state, and the boundaries to the browser, translation
// service, and persistence sinks.
package extractor
