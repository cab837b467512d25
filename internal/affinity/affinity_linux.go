//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Supported reports whether Pin restricts threads on this platform.
const Supported = true

func setAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("failed to pin thread to cpu %d: %w", cpu, err)
	}
	return nil
}

func currentCPUs() (int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, err
	}
	return set.Count(), nil
}
