// Package plugin adapts the classifier to the host's transfer pipeline.
//
// A Plugin subscribes to events.TransferRename. For every event it checks
// that it is enabled and that the payload carries a usable path, classifies
// the item, writes the composed path back into the event and marks the
// event as authored by MultiClass. Anything that goes wrong leaves the event
// exactly as it arrived: the host transfer always proceeds.
package plugin
