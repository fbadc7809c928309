// Package benchmark loads public leakage-detection benchmark datasets:
// it downloads precomputed SCADA time series, parses the published leak
// schedules, and reconstructs ground-truth labels per time step.
package benchmark

import (
	"strconv"
	"strings"
	"time"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/simulation"
)

// scheduleTimeLayout is the datetime format used by the published leak
// schedules.
const scheduleTimeLayout = "2006-01-02 15:04"

// ParseLeakSchedule parses a multi-line leak schedule into events with
// offsets relative to start. Each line is
//
//	pipe_id, start_datetime, end_datetime, diameter, kind, peak_datetime
//
// Any malformed line invalidates the whole schedule.
func ParseLeakSchedule(start time.Time, schedule string) ([]simulation.LeakEvent, error) {
	var events []simulation.LeakEvent

	lineNo := 0
	for _, line := range strings.Split(schedule, "\n") {
		lineNo++
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		items := strings.Split(line, ",")
		if len(items) != 6 {
			return nil, hferrors.ScheduleParse(lineNo,
				hferrors.Newf(hferrors.CodeScheduleParse, "expected 6 fields, got %d", len(items)))
		}
		for i := range items {
			items[i] = strings.TrimSpace(items[i])
		}

		startOffset, err := parseOffset(items[1], start, lineNo)
		if err != nil {
			return nil, err
		}
		endOffset, err := parseOffset(items[2], start, lineNo)
		if err != nil {
			return nil, err
		}
		diameter, err := strconv.ParseFloat(items[3], 64)
		if err != nil {
			return nil, hferrors.ScheduleParse(lineNo, err)
		}

		// The peak field is present on every line; abrupt events carry
		// their start datetime there.
		peakOffset, err := parseOffset(items[5], start, lineNo)
		if err != nil {
			return nil, err
		}

		ev := simulation.LeakEvent{
			PipeID:      items[0],
			Diameter:    diameter,
			StartOffset: startOffset,
			EndOffset:   endOffset,
			PeakOffset:  peakOffset,
		}
		switch items[4] {
		case string(simulation.LeakAbrupt):
			ev.Kind = simulation.LeakAbrupt
		case string(simulation.LeakIncipient):
			ev.Kind = simulation.LeakIncipient
		default:
			return nil, hferrors.ScheduleParse(lineNo,
				hferrors.Newf(hferrors.CodeUnknownEventKind, "unknown leak kind %q", items[4]))
		}

		events = append(events, ev)
	}

	return events, nil
}

func parseOffset(value string, start time.Time, line int) (int64, error) {
	t, err := time.ParseInLocation(scheduleTimeLayout, value, start.Location())
	if err != nil {
		return 0, hferrors.InvalidTimestamp(value, line)
	}
	return int64(t.Sub(start) / time.Second), nil
}
