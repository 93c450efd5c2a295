// Package proctree reconstructs parent-child process relationships from the
// process table and sweeps whole subtrees with a signal.
//
// Every query re-reads live state. The process table mutates continuously and
// there is no notification mechanism for process creation or exit, so a
// returned pid is only ever a point-in-time observation: it may refer to a
// process that has already exited by the time the caller acts on it. Callers
// treat "target vanished" as a normal outcome.
package proctree

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultProcRoot = "/proc"

// Scanner answers descendant queries against the live process table.
type Scanner struct {
	procRoot string
}

// NewScanner constructs a Scanner backed by the host process table.
func NewScanner() *Scanner {
	return &Scanner{procRoot: defaultProcRoot}
}

// Snapshot enumerates the process table exactly once and returns a map from
// pid to parent pid. Entries that are unreadable, have vanished between the
// directory listing and the open, or carry a malformed stat record are
// skipped: a partial view is an expected outcome at this layer, not an error.
func (s *Scanner) Snapshot() map[int]int {
	entries, err := os.ReadDir(s.procRoot)
	if err != nil {
		return nil
	}

	parents := make(map[int]int, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.procRoot, entry.Name(), "stat"))
		if err != nil {
			continue
		}
		ppid, ok := parsePPID(string(data))
		if !ok {
			continue
		}
		parents[pid] = ppid
	}
	return parents
}

// Descendants returns every live descendant of rootPid, direct or transitive,
// excluding rootPid itself. The table is loaded once and traversed
// breadth-first in memory.
func (s *Scanner) Descendants(rootPid int) []int {
	parents := s.Snapshot()
	children := make(map[int][]int, len(parents))
	for pid, ppid := range parents {
		children[ppid] = append(children[ppid], pid)
	}

	var out []int
	queue := append([]int(nil), children[rootPid]...)
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		out = append(out, pid)
		queue = append(queue, children[pid]...)
	}
	return out
}

// parsePPID extracts the parent pid from a stat record. The record embeds the
// process name in parentheses and the name may itself contain ')' or
// whitespace, so field parsing resumes after the last ')': the state field
// comes first, the parent pid second.
func parsePPID(stat string) (int, bool) {
	i := strings.LastIndexByte(stat, ')')
	if i < 0 {
		return 0, false
	}
	fields := strings.Fields(stat[i+1:])
	if len(fields) < 2 {
		return 0, false
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil || ppid < 0 {
		return 0, false
	}
	return ppid, true
}
