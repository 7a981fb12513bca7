// Package tuner sizes the directory walk for the machine cascade runs on.
// It detects CPU cores and memory and derives the number of walk workers
// and how far the walk may run ahead of extraction.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the free RAM in bytes, possibly an estimate.
	AvailableRAM int64
}

// Walk sizing limits.
const (
	minWorkers = 2
	maxWorkers = 32

	minQueueSize = 64
	maxQueueSize = 4096

	// bytesPerEntry estimates the memory held by one queued path.
	bytesPerEntry = 512

	// queueMemoryFraction is the share of available RAM the queue may use.
	queueMemoryFraction = 0.001
)

// WalkConfig is the tuned configuration of the directory walk.
type WalkConfig struct {
	// Workers is the number of fastwalk goroutines.
	Workers int

	// QueueSize is the number of entries buffered ahead of extraction.
	QueueSize int
}

// Calculate derives the walk configuration from resources. Walking is
// metadata-bound, so one worker per core is used within [2, 32]. Archives
// are extracted one at a time, which keeps the queue small.
func Calculate(resources SystemResources) WalkConfig {
	workers := max(resources.CPUCores, minWorkers)
	workers = min(workers, maxWorkers)

	entries := int(float64(resources.AvailableRAM) * queueMemoryFraction / bytesPerEntry)
	queue := max(entries, minQueueSize)
	queue = min(queue, maxQueueSize)

	return WalkConfig{Workers: workers, QueueSize: queue}
}

// CalculateWithOverride is Calculate with a user-chosen worker count. An
// override of zero or less keeps the calculated value; larger values are
// capped.
func CalculateWithOverride(resources SystemResources, workers int) WalkConfig {
	config := Calculate(resources)
	if workers > 0 {
		config.Workers = min(workers, maxWorkers)
	}
	return config
}

// Auto detects the system resources and returns the tuned configuration,
// falling back to the defaults for an unknown machine when detection
// fails.
func Auto(workers int) WalkConfig {
	resources, err := Detect()
	if err != nil || resources.CPUCores <= 0 {
		resources = fallbackResources()
	}
	return CalculateWithOverride(resources, workers)
}
