// Package ring implements a weighted consistent hashing ring with virtual
// nodes. It maps keys to physical nodes while minimizing key movement when
// membership changes, tracks key placement per node, enumerates replica
// sets, and notifies observers after topology mutations.
package ring
