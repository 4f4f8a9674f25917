// Package hashing provides the pluggable hash strategies that place keys and
// virtual nodes on the ring. All strategies map strings onto a shared 128-bit
// position space so they are interchangeable at ring construction time.
package hashing
