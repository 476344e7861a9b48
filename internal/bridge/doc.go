// Package bridge implements the quote bridge loop.
//
// The bridge:
//   - Opens the terminal session once (cooldown, then exit on failure)
//   - Polls symbol metadata and the last tick every interval
//   - Makes the symbol visible when the terminal hides it
//   - Hands each snapshot to a writer; write failures never stop the loop
//   - Closes the terminal session exactly once on every exit path
//
// The loop is single-threaded. Stop requests arrive through context
// cancellation and are observed between terminal calls and during sleeps;
// an in-flight terminal call is never interrupted.
package bridge
