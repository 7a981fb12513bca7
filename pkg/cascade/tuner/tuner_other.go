//go:build !linux && !darwin

package tuner

// Detect reports the CPU count and an assumed 8 GiB of memory.
func Detect() (SystemResources, error) {
	return fallbackResources(), nil
}
