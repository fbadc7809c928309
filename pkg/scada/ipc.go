package scada

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// FileExt is the extension of the native SCADA persistence format
// (Arrow IPC stream with the sensor config in the schema metadata).
const FileExt = ".hydro_scada"

const metadataKey = "hydroflow.sensor_config"

// Column name prefixes in the IPC schema, one per quantity.
const (
	colTime        = "time"
	prefixPressure = "pressure:"
	prefixFlow     = "flow:"
	prefixDemand   = "demand:"
	prefixNodeQual = "node_quality:"
	prefixLinkQual = "link_quality:"
)

// SaveFile writes the data to path in the native format.
func (d *Data) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo streams the data as Arrow IPC.
func (d *Data) WriteTo(w io.Writer) error {
	if err := d.Validate(); err != nil {
		return err
	}

	cfgJSON, err := json.Marshal(d.SensorConfig)
	if err != nil {
		return hferrors.Wrap(err, hferrors.CodeSerialization, "marshal sensor config")
	}

	var fields []arrow.Field
	fields = append(fields, arrow.Field{Name: colTime, Type: arrow.PrimitiveTypes.Int64})
	addFields := func(prefix string, ids []string, m [][]float64) {
		if m == nil {
			return
		}
		for _, id := range ids {
			fields = append(fields, arrow.Field{
				Name: prefix + id, Type: arrow.PrimitiveTypes.Float64,
			})
		}
	}
	addFields(prefixPressure, d.SensorConfig.Nodes, d.Pressures)
	addFields(prefixFlow, d.SensorConfig.Links, d.Flows)
	addFields(prefixDemand, d.SensorConfig.Nodes, d.Demands)
	addFields(prefixNodeQual, d.SensorConfig.Nodes, d.NodeQuality)
	addFields(prefixLinkQual, d.SensorConfig.Links, d.LinkQuality)

	md := arrow.NewMetadata([]string{metadataKey}, []string{string(cfgJSON)})
	schema := arrow.NewSchema(fields, &md)

	alloc := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(alloc, schema)
	defer builder.Release()

	timeBuilder := builder.Field(0).(*array.Int64Builder)
	timeBuilder.AppendValues(d.Time, nil)

	col := 1
	appendMatrix := func(m [][]float64, cols int) {
		if m == nil {
			return
		}
		for c := 0; c < cols; c++ {
			fb := builder.Field(col).(*array.Float64Builder)
			fb.Reserve(len(m))
			for t := range m {
				fb.Append(m[t][c])
			}
			col++
		}
	}
	appendMatrix(d.Pressures, len(d.SensorConfig.Nodes))
	appendMatrix(d.Flows, len(d.SensorConfig.Links))
	appendMatrix(d.Demands, len(d.SensorConfig.Nodes))
	appendMatrix(d.NodeQuality, len(d.SensorConfig.Nodes))
	appendMatrix(d.LinkQuality, len(d.SensorConfig.Links))

	rec := builder.NewRecord()
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return hferrors.Wrap(err, hferrors.CodeSerialization, "write ipc record")
	}
	return writer.Close()
}

// LoadFile reads data previously written by SaveFile.
func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFrom(f)
}

// ReadFrom reads an Arrow IPC stream produced by WriteTo.
func ReadFrom(r io.Reader) (*Data, error) {
	reader, err := ipc.NewReader(r)
	if err != nil {
		return nil, hferrors.Wrap(err, hferrors.CodeSerialization, "open ipc stream")
	}
	defer reader.Release()

	schema := reader.Schema()
	md := schema.Metadata()
	idx := md.FindKey(metadataKey)
	if idx < 0 {
		return nil, hferrors.New(hferrors.CodeSerialization, "missing sensor config metadata")
	}
	var cfg SensorConfig
	if err := json.Unmarshal([]byte(md.Values()[idx]), &cfg); err != nil {
		return nil, hferrors.Wrap(err, hferrors.CodeSerialization, "decode sensor config")
	}

	d := &Data{SensorConfig: cfg}
	has := func(prefix string) bool {
		for _, f := range schema.Fields() {
			if strings.HasPrefix(f.Name, prefix) {
				return true
			}
		}
		return false
	}
	if has(prefixPressure) {
		d.Pressures = [][]float64{}
	}
	if has(prefixFlow) {
		d.Flows = [][]float64{}
	}
	if has(prefixDemand) {
		d.Demands = [][]float64{}
	}
	if has(prefixNodeQual) {
		d.NodeQuality = [][]float64{}
	}
	if has(prefixLinkQual) {
		d.LinkQuality = [][]float64{}
	}

	for reader.Next() {
		rec := reader.Record()
		if err := d.appendRecord(rec); err != nil {
			return nil, err
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, hferrors.Wrap(err, hferrors.CodeSerialization, "read ipc stream")
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Data) appendRecord(rec arrow.Record) error {
	nRows := int(rec.NumRows())
	schema := rec.Schema()

	colIdx := func(name string) (int, error) {
		for i, f := range schema.Fields() {
			if f.Name == name {
				return i, nil
			}
		}
		return -1, fmt.Errorf("missing column %s", name)
	}

	tIdx, err := colIdx(colTime)
	if err != nil {
		return err
	}
	timeCol, ok := rec.Column(tIdx).(*array.Int64)
	if !ok {
		return fmt.Errorf("time column has wrong type")
	}
	for i := 0; i < nRows; i++ {
		d.Time = append(d.Time, timeCol.Value(i))
	}

	readMatrix := func(prefix string, ids []string) ([][]float64, error) {
		rows := make([][]float64, nRows)
		for i := range rows {
			rows[i] = make([]float64, len(ids))
		}
		for c, id := range ids {
			idx, err := colIdx(prefix + id)
			if err != nil {
				return nil, err
			}
			col, ok := rec.Column(idx).(*array.Float64)
			if !ok {
				return nil, fmt.Errorf("column %s has wrong type", prefix+id)
			}
			for i := 0; i < nRows; i++ {
				rows[i][c] = col.Value(i)
			}
		}
		return rows, nil
	}

	appendInto := func(dst *[][]float64, prefix string, ids []string) error {
		if *dst == nil {
			return nil
		}
		rows, err := readMatrix(prefix, ids)
		if err != nil {
			return err
		}
		*dst = append(*dst, rows...)
		return nil
	}

	if err := appendInto(&d.Pressures, prefixPressure, d.SensorConfig.Nodes); err != nil {
		return err
	}
	if err := appendInto(&d.Flows, prefixFlow, d.SensorConfig.Links); err != nil {
		return err
	}
	if err := appendInto(&d.Demands, prefixDemand, d.SensorConfig.Nodes); err != nil {
		return err
	}
	if err := appendInto(&d.NodeQuality, prefixNodeQual, d.SensorConfig.Nodes); err != nil {
		return err
	}
	if err := appendInto(&d.LinkQuality, prefixLinkQual, d.SensorConfig.Links); err != nil {
		return err
	}
	return nil
}
