// Package pta builds and solves a context-sensitive, field-sensitive,
// Andersen-style points-to analysis over Dalvik-family register bytecode.
//
// The analysis has two phases. The Translator and Call-Site Expander walk
// reachable method bodies and emit a Pointer Assignment Graph — vertices
// for registers, allocation sites and fields, edges for the subset
// constraints implied by each instruction. The Solver then drains a FIFO
// worklist to a fixpoint, and the Dereferencer splices concrete field/array
// vertices into abstract dereference chains as the objects behind them
// become known.
//
// Callers never touch these pieces directly; Analyse is the entry point.
package pta
