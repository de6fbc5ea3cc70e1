package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/customer-sync/internal/repository"
)

const ExportSheet = "Customers"

// ExportHandler serves the local customer cache as a spreadsheet.
type ExportHandler struct {
	Repo repository.CustomerRepositoryInterface
}

func NewExportHandler(repo repository.CustomerRepositoryInterface) *ExportHandler {
	return &ExportHandler{Repo: repo}
}

// ExportCustomers writes every cached customer to an XLSX workbook
func (h *ExportHandler) ExportCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Repo.ListAll(r.Context())
	if err != nil {
		http.Error(w, "failed to read cache: "+err.Error(), http.StatusInternalServerError)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		http.Error(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}

	f.SetCellValue(ExportSheet, "A1", "ID")
	f.SetCellValue(ExportSheet, "B1", "CG ID")
	f.SetCellValue(ExportSheet, "C1", "Name")
	f.SetCellValue(ExportSheet, "D1", "Email")
	f.SetCellValue(ExportSheet, "E1", "Mobile")

	for i, c := range customers {
		f.SetCellValue(ExportSheet, fmt.Sprintf("A%d", i+2), c.ID)
		f.SetCellValue(ExportSheet, fmt.Sprintf("B%d", i+2), c.CgID)
		f.SetCellValue(ExportSheet, fmt.Sprintf("C%d", i+2), c.Name)
		f.SetCellValue(ExportSheet, fmt.Sprintf("D%d", i+2), c.Email)
		f.SetCellValue(ExportSheet, fmt.Sprintf("E%d", i+2), c.Mobile)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="customers.xlsx"`)

	if err := f.Write(w); err != nil {
		log.Println("⚠️ Failed to write customer export:", err)
	}
}
