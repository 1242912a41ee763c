// Package messagelog houses concrete implementations of core.MessageLog.
// The interface itself lives in core so agents and the office depend only on
// the contract. Additional backends can be added in sub-packages without
// changing any calling code.
package messagelog
