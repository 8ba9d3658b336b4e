package infra

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// HojaExcel is one worksheet to write: a header row followed by data rows.
type HojaExcel struct {
	Nombre     string
	Encabezado []string
	Filas      [][]interface{}
}

// LeerHoja returns every row of the first worksheet of an .xlsx document.
func LeerHoja(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excel: open: %w", err)
	}
	defer f.Close()

	hojas := f.GetSheetList()
	if len(hojas) == 0 {
		return nil, fmt.Errorf("excel: el libro no tiene hojas")
	}
	rows, err := f.GetRows(hojas[0])
	if err != nil {
		return nil, fmt.Errorf("excel: read rows: %w", err)
	}
	return rows, nil
}

// EscribirLibro builds an .xlsx document with one worksheet per hoja.
func EscribirLibro(hojas ...HojaExcel) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	encabezado, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("excel: style: %w", err)
	}

	for i, h := range hojas {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", h.Nombre); err != nil {
				return nil, fmt.Errorf("excel: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(h.Nombre); err != nil {
			return nil, fmt.Errorf("excel: new sheet: %w", err)
		}

		sw, err := f.NewStreamWriter(h.Nombre)
		if err != nil {
			return nil, fmt.Errorf("excel: stream writer: %w", err)
		}
		cab := make([]interface{}, len(h.Encabezado))
		for j, t := range h.Encabezado {
			cab[j] = excelize.Cell{StyleID: encabezado, Value: t}
		}
		if err := sw.SetRow("A1", cab); err != nil {
			return nil, err
		}
		for j, fila := range h.Filas {
			celda, _ := excelize.CoordinatesToCellName(1, j+2)
			if err := sw.SetRow(celda, fila); err != nil {
				return nil, err
			}
		}
		if err := sw.Flush(); err != nil {
			return nil, fmt.Errorf("excel: flush: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("excel: write: %w", err)
	}
	return buf.Bytes(), nil
}
