package server

import (
	"archive/zip"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// handleExportScenario serves the scenario as EPANET files: a bare .inp,
// or a zip of .inp plus .msx when a quality model exists. Temp files live
// only for the duration of the request.
func (s *Server) handleExportScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	dir, err := os.MkdirTemp("", "hydroflow-export-*")
	if err != nil {
		respondError(w, r, hferrors.Wrap(err, hferrors.CodeExportFailed, "create temp dir"))
		return
	}
	defer os.RemoveAll(dir)

	inpPath := filepath.Join(dir, "scenario.inp")
	msxPath := filepath.Join(dir, "scenario.msx")
	if err := sc.SaveToEpanetFiles(inpPath, msxPath); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")

	if _, err := os.Stat(msxPath); err == nil {
		w.Header().Set("Content-Disposition", `attachment; filename="scenario.zip"`)
		if err := writeZip(w, inpPath, msxPath); err != nil {
			respondError(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="scenario.inp"`)
	serveFile(w, r, inpPath)
}

func writeZip(w io.Writer, paths ...string) error {
	zw := zip.NewWriter(w)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return hferrors.Wrap(err, hferrors.CodeExportFailed, "open export file")
		}
		entry, err := zw.Create(filepath.Base(path))
		if err != nil {
			f.Close()
			return hferrors.Wrap(err, hferrors.CodeExportFailed, "create zip entry")
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			return hferrors.Wrap(err, hferrors.CodeExportFailed, "write zip entry")
		}
		f.Close()
	}
	return zw.Close()
}

func serveFile(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		respondError(w, r, hferrors.Wrap(err, hferrors.CodeExportFailed, "open export file"))
		return
	}
	defer f.Close()
	io.Copy(w, f)
}

// handleExportScadaData serves a result in the requested format. The
// format query selects csv, parquet, xlsx, or the native format (default).
func (s *Server) handleExportScadaData(w http.ResponseWriter, r *http.Request) {
	data, err := s.results.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="scada.csv"`)
		if err := data.ExportCSV(w); err != nil {
			respondError(w, r, err)
		}
	case "parquet":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="scada.parquet"`)
		if err := data.ExportParquet(w); err != nil {
			respondError(w, r, err)
		}
	case "xlsx":
		dir, err := os.MkdirTemp("", "hydroflow-export-*")
		if err != nil {
			respondError(w, r, hferrors.Wrap(err, hferrors.CodeExportFailed, "create temp dir"))
			return
		}
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "scada.xlsx")
		if err := data.ExportXLSX(path); err != nil {
			respondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="scada.xlsx"`)
		serveFile(w, r, path)
	case "", "scada":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="data.hydro_scada"`)
		if err := data.WriteTo(w); err != nil {
			respondError(w, r, err)
		}
	default:
		respondError(w, r, hferrors.Newf(hferrors.CodeBadRequest,
			"unknown export format %q", format))
	}
}
