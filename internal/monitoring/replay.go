package monitoring

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Replay reconstructs the metrics state by folding the audit log from empty,
// the recovery procedure for a crash between a log append and the metrics
// persist. A trailing partial line (torn write from a crash mid-append) is
// tolerated and skipped.
func Replay(logPath string) (Metrics, error) {
	file, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMetrics(), nil
		}
		return Metrics{}, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	metrics := NewMetrics()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		metrics.Apply(e)
	}
	if err := scanner.Err(); err != nil {
		return Metrics{}, fmt.Errorf("failed to scan audit log: %w", err)
	}

	return metrics, nil
}
