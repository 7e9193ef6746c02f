package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// sheetWriter streams rows into one export file.
type sheetWriter interface {
	WriteRow(values []string) error
	// Flush pushes buffered rows to the destination after each page.
	Flush() error
	// Close finalizes the document; the destination is not closed.
	Close() error
	BytesWritten() int64
}

func newSheetWriter(format string, dst io.Writer) (sheetWriter, error) {
	switch format {
	case "", FormatCSV:
		buffered := bufio.NewWriterSize(dst, 1<<20)
		counter := &countingWriter{writer: buffered}
		return &csvSheet{buffered: buffered, counter: counter, csv: csv.NewWriter(counter)}, nil
	case FormatXLSX:
		return newXLSXSheet(dst)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func fileExtension(format string) string {
	if format == FormatXLSX {
		return "xlsx"
	}
	return "csv"
}

func mimeType(format string) string {
	if format == FormatXLSX {
		return mimeXLSX
	}
	return mimeCSV
}

type csvSheet struct {
	buffered *bufio.Writer
	counter  *countingWriter
	csv      *csv.Writer
}

func (c *csvSheet) WriteRow(values []string) error {
	return c.csv.Write(values)
}

func (c *csvSheet) Flush() error {
	c.csv.Flush()
	if err := c.csv.Error(); err != nil {
		return fmt.Errorf("flush csv rows: %w", err)
	}
	if err := c.buffered.Flush(); err != nil {
		return fmt.Errorf("flush buffered rows: %w", err)
	}
	return nil
}

func (c *csvSheet) Close() error {
	return c.Flush()
}

func (c *csvSheet) BytesWritten() int64 {
	return c.counter.count
}

const xlsxSheetName = "Sheet1"

// xlsxSheet buffers rows in an excelize stream writer and serializes the
// workbook on Close.
type xlsxSheet struct {
	file    *excelize.File
	stream  *excelize.StreamWriter
	dst     io.Writer
	row     int
	written int64
}

func newXLSXSheet(dst io.Writer) (*xlsxSheet, error) {
	f := excelize.NewFile()
	stream, err := f.NewStreamWriter(xlsxSheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open xlsx stream: %w", err)
	}
	return &xlsxSheet{file: f, stream: stream, dst: dst}, nil
}

func (x *xlsxSheet) WriteRow(values []string) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return x.stream.SetRow(cell, row)
}

func (x *xlsxSheet) Flush() error {
	return nil
}

func (x *xlsxSheet) Close() error {
	defer x.file.Close()
	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("flush xlsx stream: %w", err)
	}
	n, err := x.file.WriteTo(x.dst)
	if err != nil {
		return fmt.Errorf("write xlsx workbook: %w", err)
	}
	x.written = n
	return nil
}

func (x *xlsxSheet) BytesWritten() int64 {
	return x.written
}

type countingWriter struct {
	writer io.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}
