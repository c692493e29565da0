// Package ui decides whether vecna may talk to a human and holds the
// terminal components it uses when it can.
//
// Prompts live in [prompt], non-interactive rendering in [static] and the
// shared palette in [styles]. Every interactive component renders to
// stderr so stdout stays pipeable, e.g. eval "$(vecna switch)".
package ui
