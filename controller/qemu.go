package controller

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// guestNameRE extracts the guest name from a qemu command line. The value is
// terminated by a comma, so names containing commas are truncated; no
// contract specifies an escaping scheme, so this is left as-is.
var guestNameRE = regexp.MustCompile(`-name\s+guest=([^,]+)`)

// guestName pulls the guest name out of one process-listing line.
// Lines without the token are not an error, just not a guest.
func guestName(line string) (string, bool) {
	m := guestNameRE.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// scanProcesses lists qemu process command lines via pgrep. A nonzero exit
// simply means no matches; only a spawn failure is an error.
func (c *Controller) scanProcesses(ctx context.Context) ([]string, error) {
	res, err := c.runner.Run(ctx, "pgrep", "-fa", "qemu")
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// processPattern is the pgrep filter matching the hypervisor process of one
// directly spawned guest.
func processPattern(name string) string {
	return "qemu.*" + name
}

// findPID resolves the OS pid of a direct guest. ok is false when no process
// matches. pgrep prints one pid per match; more than one match makes the
// output unparsable and is reported as an error.
func (c *Controller) findPID(ctx context.Context, name string) (pid int, ok bool, err error) {
	res, err := c.runner.Run(ctx, "pgrep", "-f", processPattern(name))
	if err != nil {
		return 0, false, err
	}
	if res.ExitCode != 0 {
		return 0, false, nil
	}
	out := strings.TrimSpace(string(res.Stdout))
	pid, perr := strconv.Atoi(out)
	if perr != nil {
		return 0, false, fmt.Errorf("parse pgrep output %q: %w", out, perr)
	}
	return pid, true, nil
}

// spawnArgs builds the qemu invocation for a direct guest. Config keys are
// appended in sorted order; a true boolean becomes a bare flag, every other
// value a flag/value pair.
func spawnArgs(binary, name string, vmConfig map[string]any) []string {
	argv := []string{binary, "-name", "guest=" + name}

	keys := make([]string, 0, len(vmConfig))
	for k := range vmConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := vmConfig[k]
		if b, isBool := v.(bool); isBool && b {
			argv = append(argv, "-"+k)
			continue
		}
		argv = append(argv, "-"+k, fmt.Sprintf("%v", v))
	}
	return argv
}
