package scada

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// sensorColumns returns one header per configured sensor, in GetData order.
func (d *Data) sensorColumns() []string {
	cfg := d.SensorConfig
	cols := make([]string, 0, cfg.SensorCount())
	for _, s := range cfg.PressureSensors {
		cols = append(cols, prefixPressure+s)
	}
	for _, s := range cfg.FlowSensors {
		cols = append(cols, prefixFlow+s)
	}
	for _, s := range cfg.DemandSensors {
		cols = append(cols, prefixDemand+s)
	}
	for _, s := range cfg.NodeQualitySensors {
		cols = append(cols, prefixNodeQual+s)
	}
	for _, s := range cfg.LinkQualitySensors {
		cols = append(cols, prefixLinkQual+s)
	}
	return cols
}

// ExportCSV writes the metered readings as CSV, first column is the
// reading time in seconds.
func (d *Data) ExportCSV(w io.Writer) error {
	data, err := d.GetData()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := append([]string{colTime}, d.sensorColumns()...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for t := range data {
		row[0] = strconv.FormatInt(d.Time[t], 10)
		for c, v := range data[t] {
			row[c+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportParquet writes the metered readings as a Parquet file.
func (d *Data) ExportParquet(w io.Writer) error {
	data, err := d.GetData()
	if err != nil {
		return err
	}

	fields := []arrow.Field{{Name: colTime, Type: arrow.PrimitiveTypes.Int64}}
	for _, name := range d.sensorColumns() {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(true),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, w, writerProps, arrowProps)
	if err != nil {
		return hferrors.Wrap(err, hferrors.CodeSerialization, "create parquet writer")
	}

	alloc := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(alloc, schema)
	defer builder.Release()

	builder.Field(0).(*array.Int64Builder).AppendValues(d.Time, nil)
	for c := range d.sensorColumns() {
		fb := builder.Field(c + 1).(*array.Float64Builder)
		fb.Reserve(len(data))
		for t := range data {
			fb.Append(data[t][c])
		}
	}

	rec := builder.NewRecord()
	defer rec.Release()

	if err := writer.Write(rec); err != nil {
		writer.Close()
		return hferrors.Wrap(err, hferrors.CodeSerialization, "write parquet record")
	}
	return writer.Close()
}

// ExportXLSX writes the metered readings as an Excel workbook with a
// single "SCADA" sheet.
func (d *Data) ExportXLSX(path string) error {
	data, err := d.GetData()
	if err != nil {
		return err
	}

	xl := excelize.NewFile()
	defer xl.Close()

	const sheet = "SCADA"
	idx, err := xl.NewSheet(sheet)
	if err != nil {
		return err
	}
	xl.SetActiveSheet(idx)
	xl.DeleteSheet("Sheet1")

	header := append([]string{colTime}, d.sensorColumns()...)
	for c, name := range header {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := xl.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}

	for t := range data {
		cell, err := excelize.CoordinatesToCellName(1, t+2)
		if err != nil {
			return err
		}
		if err := xl.SetCellValue(sheet, cell, d.Time[t]); err != nil {
			return err
		}
		for c, v := range data[t] {
			cell, err := excelize.CoordinatesToCellName(c+2, t+2)
			if err != nil {
				return err
			}
			if err := xl.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return xl.SaveAs(path)
}
