package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "dwcli/internal/errors"
	"dwcli/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

var (
	customerDimHeader = []string{
		"CustomerKey", "CustomerID", "FirstName", "LastName", "Country",
		"MaritalStatus", "Gender", "BirthDate", "CreateDate",
	}
	productDimHeader = []string{
		"ProductKey", "ProductID", "ProductNumber", "Name", "CategoryID",
		"Category", "Subcategory", "Maintenance", "Cost", "Line", "StartDate",
	}
	salesFactHeader = []string{
		"OrderNumber", "ProductKey", "CustomerKey", "ProductNumber",
		"CustomerID", "OrderDate", "ShipDate", "DueDate", "Quantity",
		"UnitPrice", "Amount",
	}
)

// writeTable writes one warehouse target as <target>.csv with a UTF-8 BOM
// so exports open cleanly in Excel.
func writeTable(dir, target string, header []string, records [][]string) error {
	path := filepath.Join(dir, target+".csv")

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("create table file "+target, err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return apperrors.NewStorageError("write BOM "+target, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return apperrors.NewStorageError("write header "+target, err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError("write row "+target, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("flush table "+target, err)
	}
	return nil
}

func encodeCustomerDims(rows []domain.CustomerDimRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.CustomerKey),
			r.CustomerID,
			r.FirstName,
			r.LastName,
			r.Country,
			r.MaritalStatus,
			r.Gender,
			formatDatePtr(r.BirthDate),
			formatDate(r.CreateDate),
		})
	}
	return out
}

func encodeProductDims(rows []domain.ProductDimRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.ProductKey),
			strconv.Itoa(r.ProductID),
			r.ProductNumber,
			r.Name,
			r.CategoryID,
			r.Category,
			r.Subcategory,
			r.Maintenance,
			formatFloat(r.Cost),
			r.Line,
			formatDate(r.StartDate),
		})
	}
	return out
}

func encodeSalesFacts(rows []domain.SalesFactRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.OrderNumber,
			formatIntPtr(r.ProductKey),
			formatIntPtr(r.CustomerKey),
			r.ProductNumber,
			r.CustomerID,
			formatDatePtr(r.OrderDate),
			formatDatePtr(r.ShipDate),
			formatDatePtr(r.DueDate),
			strconv.Itoa(r.Quantity),
			formatFloatPtr(r.UnitPrice),
			formatFloat(r.Amount),
		})
	}
	return out
}

// Null-valued fields serialize as empty cells.

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatIntPtr(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
