// Package office implements the shared chat channel and round dispatch that
// coordinate a roster of agents.
//
// A Chat owns the message log, the per-agent read cursors and the roster.
// Every message posted from outside (by the human user or the system) opens a
// round: each registered agent is offered one turn, sequentially and in
// registration order, against the log as it stands at that point. Posts made
// earlier in the round are therefore visible to later agents, and agents that
// already ran are not re-triggered within the round.
//
// # Round policy (abridged)
//   - Rounds are serialized; the trigger is appended inside the round lock.
//   - The trigger's author is skipped and its cursor advanced.
//   - An agent infers only if an unseen message from someone else is a
//     broadcast, addressed to it, or the agent is an observer.
//   - A failing turn never aborts the turns of other agents.
//   - Cancellation aborts the round; the in-flight turn is discarded.
//
// Progress is reported as Events to subscribers in emission order.
package office
