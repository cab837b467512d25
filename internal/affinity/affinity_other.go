//go:build !linux

package affinity

// Supported reports whether Pin restricts threads on this platform.
const Supported = false

func setAffinity(int) error {
	return nil
}

func currentCPUs() (int, error) {
	return 0, nil
}
