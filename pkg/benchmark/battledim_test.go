package benchmark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/hydroflow/hydroflow/pkg/fetch"
	"github.com/hydroflow/hydroflow/pkg/scada"
)

var battledimTrainPipes = []string{
	"p257", "p427", "p810", "p654", "p523", "p827", "p280",
	"p653", "p710", "p514", "p331", "p193", "p142", "p680",
}

// writeTrainFixture persists a small SCADA file shaped like the train
// dataset: one year at 1800s steps over the scheduled pipes.
func writeTrainFixture(t *testing.T, dir string) {
	t.Helper()
	cfg := scada.EmptySensorConfig([]string{"n1", "n2"}, battledimTrainPipes)
	cfg.FlowSensors = battledimTrainPipes
	cfg.PressureSensors = []string{"n1"}

	const steps = 17520
	data := scada.New(cfg, steps)
	for i := 0; i < steps; i++ {
		data.Time[i] = int64(i) * LabelStepSeconds
	}

	path := filepath.Join(dir, "battledim_train"+scada.FileExt)
	if err := data.SaveFile(path); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestLoadBattLeDIM(t *testing.T) {
	remote := t.TempDir()
	writeTrainFixture(t, remote)

	var requests atomic.Int64
	fileSrv := http.FileServer(http.Dir(remote))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fileSrv.ServeHTTP(w, r)
	}))
	defer srv.Close()

	cache := t.TempDir()
	opts := LoadOptions{
		DownloadDir:         cache,
		BaseURL:             srv.URL + "/",
		ReturnXY:            true,
		ReturnLeakLocations: true,
		Fetch:               fetch.Options{},
	}

	ds, err := LoadBattLeDIM(context.Background(), VariantTrain, opts)
	if err != nil {
		t.Fatalf("LoadBattLeDIM: %v", err)
	}

	if ds.Data.Steps() != 17520 {
		t.Fatalf("steps = %d", ds.Data.Steps())
	}
	if len(ds.Y) != 17520 {
		t.Fatalf("label vector length = %d", len(ds.Y))
	}
	if len(ds.X) != 17520 || len(ds.X[0]) != ds.Data.SensorConfig.SensorCount() {
		t.Fatalf("X shape = %dx%d", len(ds.X), len(ds.X[0]))
	}
	if ds.LeakLocations == nil || ds.LeakLocations.Steps() != 17520 {
		t.Fatal("missing leak location matrix")
	}

	// Labels must be non-trivial and agree with the location matrix.
	var marked int
	for step, label := range ds.Y {
		pipes := ds.LeakLocations.LeakingPipes(step)
		if (label == 1) != (len(pipes) > 0) {
			t.Fatalf("step %d: label %d but %d pipes marked", step, label, len(pipes))
		}
		if label == 1 {
			marked++
		}
	}
	if marked == 0 || marked == len(ds.Y) {
		t.Fatalf("degenerate label vector: %d of %d marked", marked, len(ds.Y))
	}

	// Second load hits the cache, never the server.
	before := requests.Load()
	if _, err := LoadBattLeDIM(context.Background(), VariantTrain, opts); err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if requests.Load() != before {
		t.Fatal("cached load touched the network")
	}
}

func TestLoadBattLeDIMUnknownVariant(t *testing.T) {
	_, err := LoadBattLeDIM(context.Background(), Variant("validation"), LoadOptions{})
	if err == nil {
		t.Fatal("unknown variant accepted")
	}
}
