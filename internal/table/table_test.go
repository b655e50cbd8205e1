package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/table"
)

func TestReadCSVWithBOMAndSemicolons(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("CN;Descripción;Total\n123;IBUPROFENO;300\n\n456;PARACETAMOL;12,5\n")...)

	tbl, err := table.Read("ventas.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"CN", "Descripción", "Total"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "456", tbl.Cell(1, 0))
	assert.Equal(t, "12,5", tbl.Cell(1, 2))
	assert.Equal(t, "", tbl.Cell(5, 0))
}

func TestReadCSVDecodesWindows1252(t *testing.T) {
	// "Descripción" with ó encoded as a single 0xF3 byte.
	data := []byte("CN,Descripci\xf3n\n1,CREMA\n")

	tbl, err := table.Read("ventas.csv", data)
	require.NoError(t, err)
	assert.Equal(t, "Descripción", tbl.Headers[1])
}

func TestReadPadsShortRows(t *testing.T) {
	tbl, err := table.Read("x.csv", []byte("a;b;c\n1\n"))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"1", "", ""}, tbl.Rows[0])
}

func TestReadXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"CN", "Descripcion", "Total", "PVP"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"100", "JARABE", 365, 4.75}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := table.Read("stock.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"CN", "Descripcion", "Total", "PVP"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "365", tbl.Cell(0, 2))
	assert.Equal(t, "4.75", tbl.Cell(0, 3))
}

func TestReadRejectsUnreadableInput(t *testing.T) {
	_, err := table.Read("empty.csv", nil)
	assert.ErrorIs(t, err, domain.ErrUnreadableTable)

	_, err = table.Read("broken.xlsx", []byte("not a workbook"))
	assert.ErrorIs(t, err, domain.ErrUnreadableTable)

	_, err = table.Read("image.png", []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0xfe})
	assert.ErrorIs(t, err, domain.ErrUnreadableTable)
}
