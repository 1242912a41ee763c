// Package agent implements the office participant: a named persona backed by
// a language model and an ordered tool registry.
//
// An Agent reacts to a trigger message by running one turn of its decision
// loop:
//
//  1. Snapshot the office log and build a model request from the persona,
//     the office roster and the windowed history.
//  2. Ask the model for the next step. Tool calls are executed in order and
//     their results fed back; free text is posted to the office.
//  3. Stop at the first terminal step (a post or no_response) or once the
//     step bound is reached.
//
// The agent never mutates shared state other than appending to the office
// log through its tools. The cursor it returns is owned by the caller.
package agent
