package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"time"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/fetch"
	"github.com/hydroflow/hydroflow/pkg/scada"
	"github.com/hydroflow/hydroflow/pkg/simulation"
)

// Variant selects the BattLeDIM scenario year.
type Variant string

const (
	// VariantTrain is the 2018 historical scenario.
	VariantTrain Variant = "train"
	// VariantTest is the 2019 evaluation scenario.
	VariantTest Variant = "test"
)

const battledimBaseURL = "https://filedn.com/lumBFq2P9S74PNoLPWtzxG4/EPyT-Flow/BattLeDIM/"

// LoadOptions configures BattLeDIM loading.
type LoadOptions struct {
	// DownloadDir is the local cache directory. Defaults to a hydroflow
	// folder under the OS temp dir.
	DownloadDir string

	// BaseURL overrides the remote file location; http(s) or s3.
	BaseURL string

	// ReturnXY additionally materializes the sensor readings and the label
	// vector as plain arrays.
	ReturnXY bool

	// ReturnLeakLocations additionally builds the sparse leak location
	// matrix.
	ReturnLeakLocations bool

	// Fetch configures the transfer.
	Fetch fetch.Options
}

// Dataset is a loaded benchmark scenario.
type Dataset struct {
	// Data is the raw SCADA structure.
	Data *scada.Data

	// Y holds the per-step leak labels.
	Y []uint8

	// X holds the flattened sensor readings, only set with ReturnXY.
	X [][]float64

	// LeakLocations is only set with ReturnLeakLocations.
	LeakLocations *LocationMatrix
}

func battledimVariant(v Variant) (start time.Time, schedule, file string, err error) {
	var startStr string
	switch v {
	case VariantTrain:
		startStr, schedule = battledimStartTrain, battledimLeaksTrain
		file = "battledim_train" + scada.FileExt
	case VariantTest:
		startStr, schedule = battledimStartTest, battledimLeaksTest
		file = "battledim_test" + scada.FileExt
	default:
		err = hferrors.Newf(hferrors.CodeBadRequest, "unknown benchmark variant %q", v)
		return
	}
	start, err = time.ParseInLocation(scheduleTimeLayout, startStr, time.Local)
	return
}

// LoadBattLeDIM loads the precomputed BattLeDIM SCADA data for the given
// variant, downloading it into the cache directory when absent, and
// reconstructs the ground-truth labels from the published leak schedule.
func LoadBattLeDIM(ctx context.Context, variant Variant, opts LoadOptions) (*Dataset, error) {
	start, schedule, file, err := battledimVariant(variant)
	if err != nil {
		return nil, err
	}

	dir := opts.DownloadDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "hydroflow")
	}
	base := opts.BaseURL
	if base == "" {
		base = battledimBaseURL
	}

	path := filepath.Join(dir, file)
	if err := fetch.DownloadIfMissing(ctx, base+file, path, opts.Fetch); err != nil {
		return nil, err
	}

	data, err := scada.LoadFile(path)
	if err != nil {
		return nil, err
	}

	events, err := ParseLeakSchedule(start, schedule)
	if err != nil {
		return nil, err
	}

	y, locations, err := BuildLabels(events, data.SensorConfig.Links, data.Steps())
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Data: data, Y: y}
	if opts.ReturnLeakLocations {
		ds.LeakLocations = locations
	}
	if opts.ReturnXY {
		x, err := data.GetData()
		if err != nil {
			return nil, err
		}
		ds.X = x
	}
	return ds, nil
}

// LoadBattLeDIMScenario builds a runnable scenario for the given variant:
// the L-Town network with the published one-year schedule of leak events
// already attached.
func LoadBattLeDIMScenario(ctx context.Context, variant Variant, opts LoadOptions) (*simulation.Scenario, error) {
	start, schedule, _, err := battledimVariant(variant)
	if err != nil {
		return nil, err
	}

	dir := opts.DownloadDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "hydroflow")
	}
	base := opts.BaseURL
	if base == "" {
		base = battledimBaseURL
	}

	inpPath := filepath.Join(dir, "L-TOWN.inp")
	if err := fetch.DownloadIfMissing(ctx, base+"L-TOWN.inp", inpPath, opts.Fetch); err != nil {
		return nil, err
	}

	s, err := simulation.New(simulation.Options{
		INPPath: inpPath,
		GeneralParams: &simulation.GeneralParams{
			SimulationDuration: 365,
			HydraulicTimeStep:  300,
			ReportingTimeStep:  LabelStepSeconds,
		},
	})
	if err != nil {
		return nil, err
	}

	events, err := ParseLeakSchedule(start, schedule)
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, ev := range events {
		if err := s.AddLeakage(ev); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}
