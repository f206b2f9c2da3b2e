// Package chainsync drives per-peer chain synchronization: comparing local
// and remote chain state, pulling block ranges bounded by a fork-depth limit,
// and handing the result to an asynchronous downstream block consumer while
// tracking outstanding bytes and quarantining the flow on consumer failure.
//
// A Synchronizer is invoked once per peer interaction by an external
// scheduler (see pkg/scheduler); it owns no network transport and performs
// no validation itself.
package chainsync
