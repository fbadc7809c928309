package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

const testINP = `[TITLE]
API test net

[JUNCTIONS]
J1   10    10      PAT
J2   5     5

[RESERVOIRS]
R1   60

[PIPES]
L1   R1    J1  1000    300       120
L2   J1    J2  800     200       120

[PATTERNS]
PAT  0.5  1.5

[TIMES]
DURATION            24:00
HYDRAULIC TIMESTEP  1:00
REPORT TIMESTEP     1:00
PATTERN TIMESTEP    1:00

[END]
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func createScenario(t *testing.T, srv *httptest.Server, extra map[string]interface{}) string {
	t.Helper()
	body := map[string]interface{}{"inp": testINP}
	for k, v := range extra {
		body[k] = v
	}
	resp, data := doJSON(t, http.MethodPost, srv.URL+"/scenario", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create scenario: status %d, body %v", resp.StatusCode, data)
	}
	id, _ := data["scenario_id"].(string)
	if id == "" {
		t.Fatalf("no scenario_id in %v", data)
	}
	return id
}

func TestScenarioLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createScenario(t, srv, nil)

	resp, cfg := doJSON(t, http.MethodGet, srv.URL+"/scenario/"+id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get config: status %d", resp.StatusCode)
	}
	if cfg["inp_title"] != "API test net" {
		t.Fatalf("config title = %v", cfg["inp_title"])
	}

	resp, topo := doJSON(t, http.MethodGet, srv.URL+"/scenario/"+id+"/topology", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("topology: status %d", resp.StatusCode)
	}
	if nodes, ok := topo["nodes"].([]interface{}); !ok || len(nodes) != 3 {
		t.Fatalf("topology nodes = %v", topo["nodes"])
	}

	resp, sim := doJSON(t, http.MethodPost, srv.URL+"/scenario/"+id+"/simulation", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("simulation: status %d, body %v", resp.StatusCode, sim)
	}
	dataID, _ := sim["data_id"].(string)
	if dataID == "" {
		t.Fatalf("no data_id in %v", sim)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/scada/"+dataID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get scada: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/scenario/"+id, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	// The result resource survives scenario deletion.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/scada/"+dataID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scada gone after scenario delete: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/scenario/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted scenario: status %d, want 404", resp.StatusCode)
	}
}

func TestResourceIDValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/scenario/not-a-uuid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed id: status %d, want 400", resp.StatusCode)
	}

	unknown := uuid.New().String()
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/scenario/"+unknown, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown id: status %d, want 404", resp.StatusCode)
	}

	// Deleting an id that was never issued is an error, not a crash.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/scenario/"+unknown, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete unknown id: status %d, want 404", resp.StatusCode)
	}
}

func TestLeakageEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createScenario(t, srv, nil)

	leak := map[string]interface{}{
		"link_id": "L2", "diameter": 0.05,
		"start_time": 3600, "end_time": 7200, "type": "abrupt",
	}
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/scenario/"+id+"/leakages", leak)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add leakage: status %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/scenario/"+id+"/leakages", nil)
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	var leaks []map[string]interface{}
	if err := json.NewDecoder(getResp.Body).Decode(&leaks); err != nil {
		t.Fatal(err)
	}
	if len(leaks) != 1 || leaks[0]["link_id"] != "L2" {
		t.Fatalf("leakages = %v", leaks)
	}

	leak["type"] = "gradual"
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/scenario/"+id+"/leakages", leak)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad leak kind: status %d, want 400", resp.StatusCode)
	}
}

func TestGeneralParamsRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	id := createScenario(t, srv, nil)

	gp := map[string]interface{}{
		"simulation_duration": 2,
		"hydraulic_time_step": 1800,
		"reporting_time_step": 1800,
	}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/scenario/"+id+"/general_params", gp)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("put general params: status %d", resp.StatusCode)
	}

	resp, got := doJSON(t, http.MethodGet, srv.URL+"/scenario/"+id+"/general_params", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get general params: status %d", resp.StatusCode)
	}
	if got["simulation_duration"].(float64) != 2 {
		t.Fatalf("general params = %v", got)
	}
}

func TestPutSensorConfigRejectsPartialLinks(t *testing.T) {
	srv := newTestServer(t)
	id := createScenario(t, srv, nil)

	cfg := map[string]interface{}{
		"nodes":        []string{"J1", "J2", "R1"},
		"links":        []string{"L1"},
		"flow_sensors": []string{"L1"},
	}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/scenario/"+id+"/sensor_config", cfg)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("partial link list: status %d, want 400", resp.StatusCode)
	}

	// The rejected config left the scenario runnable.
	resp, sim := doJSON(t, http.MethodPost, srv.URL+"/scenario/"+id+"/simulation", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("simulation after rejected config: status %d, body %v", resp.StatusCode, sim)
	}
}

func TestAdvancedQualityWithoutModel(t *testing.T) {
	srv := newTestServer(t)
	id := createScenario(t, srv, nil)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/scenario/"+id+"/simulation/advanced_quality", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("advanced quality without model: status %d, want 500", resp.StatusCode)
	}
}

func TestExportSingleFileVsArchive(t *testing.T) {
	srv := newTestServer(t)

	fetchExport := func(id string) []byte {
		resp, err := http.Get(srv.URL + "/scenario/" + id + "/export")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("export: status %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Fatalf("content type = %s", ct)
		}
		body, _ := io.ReadAll(resp.Body)
		return body
	}

	plain := fetchExport(createScenario(t, srv, nil))
	if !strings.HasPrefix(string(plain), "[TITLE]") {
		t.Fatalf("plain export does not look like an inp file: %q", plain[:min(20, len(plain))])
	}

	chem := fetchExport(createScenario(t, srv, map[string]interface{}{"enable_chemical": true}))
	if !bytes.HasPrefix(chem, []byte("PK")) {
		t.Fatal("chemical export is not a zip archive")
	}
}

func TestScadaExport(t *testing.T) {
	srv := newTestServer(t)
	id := createScenario(t, srv, nil)

	resp, sim := doJSON(t, http.MethodPost, srv.URL+"/scenario/"+id+"/simulation", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("simulation: status %d", resp.StatusCode)
	}
	dataID := sim["data_id"].(string)

	csvResp, err := http.Get(fmt.Sprintf("%s/scada/%s/export?format=csv", srv.URL, dataID))
	if err != nil {
		t.Fatal(err)
	}
	defer csvResp.Body.Close()
	head := make([]byte, 4)
	io.ReadFull(csvResp.Body, head)
	if string(head) != "time" {
		t.Fatalf("csv export starts with %q", head)
	}

	badResp, err := http.Get(fmt.Sprintf("%s/scada/%s/export?format=hdf5", srv.URL, dataID))
	if err != nil {
		t.Fatal(err)
	}
	badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown format: status %d, want 400", badResp.StatusCode)
	}
}
