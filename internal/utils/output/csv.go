package output

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/law-makers/schoolsoft/pkg/models"
)

var newsHeader = []string{"id", "category", "date", "from", "to", "subject", "attachment_name", "attachment_url", "body"}

// WriteNewsCSV writes one row per news item. Unset dates are left empty.
func WriteNewsCSV(w io.Writer, items []models.NewsItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(newsHeader); err != nil {
		return err
	}
	for _, item := range items {
		date := ""
		if !item.Date.IsZero() {
			date = item.Date.String()
		}
		row := []string{
			strconv.Itoa(item.ID),
			item.Category,
			date,
			item.From,
			item.To,
			item.Subject,
			item.AttachmentName,
			item.AttachmentURL,
			item.Body,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteLinesCSV writes one row per lunch day or schedule event: its position
// followed by its lines. Rows may differ in length.
func WriteLinesCSV(w io.Writer, rows []models.Lines) error {
	writer := csv.NewWriter(w)

	for i, lines := range rows {
		record := append([]string{strconv.Itoa(i + 1)}, lines...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveNewsCSV writes news items to a CSV file
func SaveNewsCSV(items []models.NewsItem, filepath string) error {
	return saveWith(filepath, func(w io.Writer) error { return WriteNewsCSV(w, items) })
}

// SaveLinesCSV writes lunch days or schedule events to a CSV file
func SaveLinesCSV(rows []models.Lines, filepath string) error {
	return saveWith(filepath, func(w io.Writer) error { return WriteLinesCSV(w, rows) })
}

func saveWith(filepath string, write func(io.Writer) error) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := write(file); err != nil {
		return err
	}
	return file.Close()
}
