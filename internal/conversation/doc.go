// Package conversation implements the inbound SMS processing pipeline.
//
// # Pipeline
//
// Each inbound message moves through: resolve contact, persist the
// incoming message, evaluate the auto-reply policy, then either
// generate-and-dispatch a reply or defer to a human. Classification
// enrichment runs afterwards in the background.
//
// The incoming message is persisted before any decision logic runs,
// so a generation or delivery outage never loses history. Only a
// persistence failure on that first write aborts the pipeline.
//
// # Ordering
//
// Work is serialized per phone number: a keyed mutex spans the whole
// pipeline, so two messages from the same sender are processed
// start-to-finish in arrival order, while different senders proceed
// in parallel. Manual sends share the same exclusion key.
//
// # Suspension points
//
// The only slow calls are the generator's; each is wrapped in a
// bounded timeout. On expiry or any other generation failure the
// canned fallback text is dispatched instead.
package conversation
