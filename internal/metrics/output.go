package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// jsonReport mirrors the fixed metrics JSON output shape: field order is
// insignificant for JSON but the field set and names are exact.
type jsonReport struct {
	TotalMessages     uint64  `json:"total_messages"`
	DroppedMessages   uint64  `json:"dropped_messages"`
	TotalReplans      uint64  `json:"total_replans"`
	Makespan          uint64  `json:"makespan"`
	CollisionDetected bool    `json:"collision_detected"`
	WallTimeMs        int64   `json:"wall_time_ms"`
	DropRate          float64 `json:"drop_rate"`
}

// WriteMetricsJSON emits the run's snapshot as the fixed-shape metrics
// JSON document. A write failure here is a Fatal-class error: it must be
// logged, but the run itself has already completed.
func WriteMetricsJSON(path string, snapshot Snapshot) error {
	report := jsonReport{
		TotalMessages:     snapshot.TotalMessages,
		DroppedMessages:   snapshot.DroppedMessages,
		TotalReplans:      snapshot.TotalReplans,
		Makespan:          snapshot.Makespan,
		CollisionDetected: snapshot.CollisionDetected,
		WallTimeMs:        snapshot.WallTime.Milliseconds(),
		DropRate:          snapshot.DropRate(),
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open metrics file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode metrics json: %w", err)
	}
	return nil
}

// WriteTraceCSV emits the fixed-header trace CSV: one row per
// (tick, agent).
func WriteTraceCSV(path string, traces []TickTrace) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"tick", "agent_id", "x", "y", "active_agents", "messages_sent"}); err != nil {
		return fmt.Errorf("write trace header: %w", err)
	}

	for _, trace := range traces {
		tick := strconv.FormatUint(trace.Tick, 10)
		active := strconv.Itoa(trace.ActiveAgents)
		sent := strconv.Itoa(trace.MessagesSent)
		for _, ap := range trace.AgentPositions {
			row := []string{
				tick,
				ap.AgentID.String(),
				strconv.Itoa(ap.Pos.X),
				strconv.Itoa(ap.Pos.Y),
				active,
				sent,
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write trace row: %w", err)
			}
		}
	}
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush trace file: %w", err)
	}
	return nil
}
