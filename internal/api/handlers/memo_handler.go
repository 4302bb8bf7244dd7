package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/mcgen/internal/api/responses"
	"github.com/ginjaninja78/mcgen/internal/cache"
	"github.com/ginjaninja78/mcgen/internal/config"
	"github.com/ginjaninja78/mcgen/internal/converter"
	"github.com/ginjaninja78/mcgen/internal/reader"
	"github.com/ginjaninja78/mcgen/internal/validation"
	"github.com/ginjaninja78/mcgen/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Content types of the generated files.
const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ZipContentType  = "application/zip"
)

var baseExtensions = map[string]bool{".xlsx": true, ".xlsm": true, ".xls": true, ".csv": true, ".parquet": true}

// Config holds what every request shares.
type Config struct {
	Mapping *config.Mapping
	Options converter.Options

	// Template is used when the request carries no templateFile.
	Template []byte

	// Store is used when the request carries no baseFile.
	Store *cache.Store

	// NameFormat names single generated workbooks.
	NameFormat string
}

// MemoHandler serves the calculation memo endpoints. Every request builds
// its own Orchestrator.
type MemoHandler struct {
	cfg Config
}

// NewMemoHandler creates a new memo handler.
func NewMemoHandler(cfg Config) *MemoHandler {
	if cfg.NameFormat == "" {
		cfg.NameFormat = "MC_{client}_{period}.xlsx"
	}
	return &MemoHandler{cfg: cfg}
}

// getListFromForm collects a repeated form field, dropping blanks.
func getListFromForm(c *gin.Context, formKey string) []string {
	var values []string
	for _, v := range c.PostFormArray(formKey) {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// readFormFile returns the bytes of an uploaded file. ok is false when the
// field is absent.
func readFormFile(c *gin.Context, field string) (name string, data []byte, ok bool, err error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil, false, nil
	}
	f, err := header.Open()
	if err != nil {
		return "", nil, true, err
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	return header.Filename, data, true, err
}

// orchestrator builds the Orchestrator of a request. On failure the error
// response has been sent and nil is returned.
func (h *MemoHandler) orchestrator(c *gin.Context, needTemplate bool) *converter.Orchestrator {
	src, ok := h.baseSource(c)
	if !ok {
		return nil
	}

	template := h.cfg.Template
	name, data, present, err := readFormFile(c, "templateFile")
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Could not open the template file")
		return nil
	}
	if present {
		if ext := strings.ToLower(filepath.Ext(name)); ext != ".xlsx" && ext != ".xlsm" {
			responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Unsupported template extension: %s", ext))
			return nil
		}
		template = data
	}
	if needTemplate && len(template) == 0 {
		responses.Error(c, http.StatusBadRequest, "Template file (.xlsx) not found or invalid")
		return nil
	}

	var o *converter.Orchestrator
	if src != nil {
		o, err = converter.Open(*src, template, h.cfg.Mapping, h.cfg.Options)
	} else {
		o, err = converter.OpenStore(*h.cfg.Store, template, h.cfg.Mapping, h.cfg.Options)
		if errors.Is(err, fs.ErrNotExist) {
			responses.Error(c, http.StatusBadRequest, noBaseMessage)
			return nil
		}
	}
	if err != nil {
		h.sourceError(c, err)
		return nil
	}
	return o
}

const noBaseMessage = "Base file (.xlsx, .xlsm, .xls, .csv) not found and no consolidated cache available"

// baseSource returns the uploaded base. A nil source with ok set means the
// consolidated cache is used.
func (h *MemoHandler) baseSource(c *gin.Context) (*reader.Source, bool) {
	name, data, present, err := readFormFile(c, "baseFile")
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Could not open the base file")
		return nil, false
	}
	if present {
		ext := strings.ToLower(filepath.Ext(name))
		if !baseExtensions[ext] {
			responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Unsupported base file extension: %s", ext))
			return nil, false
		}
		return &reader.Source{Name: name, Data: data}, true
	}

	if h.cfg.Store == nil {
		responses.Error(c, http.StatusBadRequest, noBaseMessage)
		return nil, false
	}
	return nil, true
}

func (h *MemoHandler) sourceError(c *gin.Context, err error) {
	var headerErr *validation.HeaderNotFoundError
	var missingErr *validation.MissingColumnsError
	switch {
	case errors.As(err, &headerErr):
		responses.Error(c, http.StatusUnprocessableEntity, "Header row not found in the base file", headerErr.Error())
	case errors.As(err, &missingErr):
		details := make([]string, 0, len(missingErr.Missing))
		for _, m := range missingErr.Missing {
			if s, ok := missingErr.Suggestions[m]; ok {
				details = append(details, fmt.Sprintf("%s (did you mean %s?)", m, s))
			} else {
				details = append(details, m)
			}
		}
		responses.Error(c, http.StatusUnprocessableEntity, "Required columns missing from the base file", details...)
	default:
		responses.Error(c, http.StatusBadRequest, "Could not read the base file", err.Error())
	}
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// HandleOptions lists the clients and periods of the base.
func (h *MemoHandler) HandleOptions(c *gin.Context) {
	o := h.orchestrator(c, false)
	if o == nil {
		return
	}
	responses.Success(c, gin.H{
		"clients": o.AvailableClients(),
		"periods": o.AvailablePeriods(),
	}, "")
}

// HandleCount counts the records matching the filter.
func (h *MemoHandler) HandleCount(c *gin.Context) {
	o := h.orchestrator(c, false)
	if o == nil {
		return
	}
	count := o.CountFiltered(getListFromForm(c, "clients"), getListFromForm(c, "periods"))
	responses.Success(c, gin.H{"count": count}, "")
}

// HandleGenerate returns one calculation memo workbook.
func (h *MemoHandler) HandleGenerate(c *gin.Context) {
	o := h.orchestrator(c, true)
	if o == nil {
		return
	}

	clients := getListFromForm(c, "clients")
	periods := getListFromForm(c, "periods")

	data, err := o.Generate(clients, periods)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Error generating the sheet", err.Error())
		return
	}
	if data == nil {
		responses.Error(c, http.StatusNotFound, "No data found for the selected filters")
		return
	}

	name := utils.GenerateOutputFileName(h.cfg.NameFormat, ".xlsx", map[string]string{
		"client": label(clients, "Multiplos"),
		"period": label(periods, "Varios"),
	})
	responses.File(c, name, XLSXContentType, data)
}

// HandleGenerateBatch returns a zip with one workbook per group. Groups are
// sent as a JSON array in the "groups" form field.
func (h *MemoHandler) HandleGenerateBatch(c *gin.Context) {
	var groups []converter.Group
	if err := json.Unmarshal([]byte(c.PostForm("groups")), &groups); err != nil || len(groups) == 0 {
		responses.Error(c, http.StatusBadRequest, "Field 'groups' must be a non-empty JSON array")
		return
	}

	o := h.orchestrator(c, true)
	if o == nil {
		return
	}

	data, err := o.GenerateMultiple(groups)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Error generating the batch", err.Error())
		return
	}
	if data == nil {
		responses.Error(c, http.StatusNotFound, "No file generated for the given groups")
		return
	}

	responses.File(c, utils.GenerateOutputFileName("MC_Lote_{timestamp}", ".zip", nil), ZipContentType, data)
}

// label names a selection in the output file name.
func label(values []string, many string) string {
	switch len(values) {
	case 0:
		return "Todos"
	case 1:
		return values[0]
	default:
		return many
	}
}
