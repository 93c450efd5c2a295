// Package proc wraps the operating-system primitives the supervisor drives:
// spawning the managed command, waiting for descendant exits, subreaper and
// parent-death-signal registration, session detachment and pre-spawn hygiene.
//
// The package is Linux-only. Subreaper registration (PR_SET_CHILD_SUBREAPER)
// and parent-death signals (PR_SET_PDEATHSIG) have no portable equivalent, and
// without them the supervisor cannot observe orphaned grandchildren at all.
//
// Termination is advisory: the supervisor delivers SIGTERM and never escalates
// to SIGKILL, so a descendant that ignores SIGTERM survives the sweep. This is
// a known limitation.
package proc
