package benchmark

import (
	"testing"
	"time"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/simulation"
)

func scheduleStart(t *testing.T, value string) time.Time {
	t.Helper()
	start, err := time.ParseInLocation(scheduleTimeLayout, value, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return start
}

func TestParseLeakSchedule(t *testing.T) {
	start := scheduleStart(t, "2018-01-01 00:00")
	schedule := `p1, 2018-01-01 00:00, 2018-01-01 01:00, 0.01, abrupt, 2018-01-01 00:00
p2, 2018-01-02 00:00, 2018-01-05 00:00, 0.02, incipient, 2018-01-03 12:00`

	events, err := ParseLeakSchedule(start, schedule)
	if err != nil {
		t.Fatalf("ParseLeakSchedule: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].PipeID != "p1" || events[0].Kind != simulation.LeakAbrupt {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[0].StartOffset != 0 || events[0].EndOffset != 3600 {
		t.Fatalf("first event offsets = %d..%d", events[0].StartOffset, events[0].EndOffset)
	}
	// Abrupt lines carry their start datetime in the peak field.
	if events[0].PeakOffset != events[0].StartOffset {
		t.Fatalf("abrupt peak offset = %d, want %d", events[0].PeakOffset, events[0].StartOffset)
	}

	if events[1].Kind != simulation.LeakIncipient {
		t.Fatalf("second event kind = %s", events[1].Kind)
	}
	if events[1].StartOffset != 86400 || events[1].PeakOffset != 86400+129600 {
		t.Fatalf("second event offsets = start %d peak %d", events[1].StartOffset, events[1].PeakOffset)
	}
}

func TestParseLeakScheduleFailsFast(t *testing.T) {
	start := scheduleStart(t, "2018-01-01 00:00")

	cases := []struct {
		name     string
		schedule string
		code     hferrors.Code
	}{
		{
			name: "missing field",
			schedule: `p1, 2018-01-01 00:00, 2018-01-01 01:00, 0.01, abrupt, 2018-01-01 00:00
p2, 2018-01-02 00:00, 0.02, abrupt, 2018-01-02 00:00`,
			code: hferrors.CodeScheduleParse,
		},
		{
			name:     "bad datetime",
			schedule: `p1, not-a-date, 2018-01-01 01:00, 0.01, abrupt, 2018-01-01 00:00`,
			code:     hferrors.CodeInvalidTimestamp,
		},
		{
			name:     "unknown kind",
			schedule: `p1, 2018-01-01 00:00, 2018-01-01 01:00, 0.01, gradual, 2018-01-01 00:00`,
			code:     hferrors.CodeScheduleParse,
		},
		{
			name:     "bad diameter",
			schedule: `p1, 2018-01-01 00:00, 2018-01-01 01:00, wide, abrupt, 2018-01-01 00:00`,
			code:     hferrors.CodeScheduleParse,
		},
		{
			name:     "bad peak datetime on abrupt line",
			schedule: `p1, 2018-01-01 00:00, 2018-01-01 01:00, 0.01, abrupt, not-a-date`,
			code:     hferrors.CodeInvalidTimestamp,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, err := ParseLeakSchedule(start, tc.schedule)
			if err == nil {
				t.Fatal("expected error")
			}
			if !hferrors.IsCode(err, tc.code) {
				t.Fatalf("got code %s, want %s", hferrors.GetCode(err), tc.code)
			}
			if events != nil {
				t.Fatal("partial event list returned on parse failure")
			}
		})
	}
}

func TestParseEmbeddedSchedules(t *testing.T) {
	trainStart := scheduleStart(t, battledimStartTrain)
	train, err := ParseLeakSchedule(trainStart, battledimLeaksTrain)
	if err != nil {
		t.Fatalf("train schedule: %v", err)
	}
	if len(train) != 14 {
		t.Fatalf("train schedule has %d events, want 14", len(train))
	}
	// p257 starts 7 days 13.5 hours into 2018.
	if got := train[0].StartOffset; got != 7*86400+48600 {
		t.Fatalf("p257 start offset = %d", got)
	}
	for _, ev := range train {
		if err := ev.Validate(); err != nil {
			t.Fatalf("embedded event invalid: %v", err)
		}
	}

	testStart := scheduleStart(t, battledimStartTest)
	test, err := ParseLeakSchedule(testStart, battledimLeaksTest)
	if err != nil {
		t.Fatalf("test schedule: %v", err)
	}
	if len(test) != 12 {
		t.Fatalf("test schedule has %d events, want 12", len(test))
	}
}
