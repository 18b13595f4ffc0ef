package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Title:   "Ada: Fall 2026",
		Headers: []string{"Day", "Time", "Subject"},
		Rows: [][]string{
			{"Monday", "08:00-08:45", "Math"},
			{"Monday", "08:45-09:30", "Reading, Level 2"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Time,Subject", lines[0])
	assert.Equal(t, `Monday,08:45-09:30,"Reading, Level 2"`, lines[2])
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	table := Table{Headers: []string{"Subject", "Course"}, Rows: [][]string{{"=HYPERLINK(\"x\")", "@SUM(A1)"}, {"Math", "-"}}}

	out, err := NewCSVExporter().Render(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, `"'=HYPERLINK(""x"")",'@SUM(A1)`, lines[1])
	assert.Equal(t, "Math,'-", lines[2])
}

func TestExportersRejectRaggedRows(t *testing.T) {
	table := sampleTable()
	table.Rows = append(table.Rows, []string{"Tuesday"})

	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(table)
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheet := "Ada Fall 2026"
	assert.Equal(t, []string{sheet}, f.GetSheetList())
	value, err := f.GetCellValue(sheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "Reading, Level 2", value)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Schedule", sheetName(""))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}

func TestICSExporterRender(t *testing.T) {
	start := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	out, err := NewICSExporter().Render(Calendar{
		Name:  "Ada",
		Stamp: start,
		Events: []CalendarEvent{{
			UID:      "plan-1-student-1-Monday-0",
			Summary:  "Math",
			URL:      "https://www.khanacademy.org",
			Start:    start,
			Duration: 45 * time.Minute,
			RRule:    "FREQ=WEEKLY;UNTIL=20261218T235959Z;BYDAY=MO",
		}},
	})
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Math")
	assert.Contains(t, body, "DTSTART:20260907T080000Z")
	assert.Contains(t, body, "DTEND:20260907T084500Z")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;UNTIL=20261218T235959Z;BYDAY=MO")

	_, err = NewICSExporter().Render(Calendar{Events: []CalendarEvent{{UID: "x"}}})
	assert.Error(t, err)
}
