package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/dataimport"
	"github.com/dazedniteman/pathpal-crm/modules/crm/presentation/mappers"
	"github.com/dazedniteman/pathpal-crm/modules/crm/services"
	"github.com/dazedniteman/pathpal-crm/pkg/application"
	"github.com/dazedniteman/pathpal-crm/pkg/configuration"
)

type ImportAPIController struct {
	app      application.Application
	imports  *services.ImportService
	basePath string
}

func NewImportAPIController(app application.Application) application.Controller {
	return &ImportAPIController{
		app:      app,
		imports:  app.Service(services.ImportService{}).(*services.ImportService),
		basePath: "/crm/api",
	}
}

func (c *ImportAPIController) Key() string {
	return c.basePath + "/imports"
}

func (c *ImportAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/imports", c.Start).Methods(http.MethodPost)
	router.HandleFunc("/imports/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/imports/{id}", c.Abandon).Methods(http.MethodDelete)
	router.HandleFunc("/imports/{id}/mapping", c.SetMapping).Methods(http.MethodPut)
	router.HandleFunc("/imports/{id}/review", c.Review).Methods(http.MethodPost)
	router.HandleFunc("/imports/{id}/duplicates/{index}", c.SetResolution).Methods(http.MethodPut)
	router.HandleFunc("/imports/{id}/rows/{row}", c.ReviseRow).Methods(http.MethodPut)
	router.HandleFunc("/imports/{id}/rows/{row}", c.SkipRow).Methods(http.MethodDelete)
	router.HandleFunc("/imports/{id}/commit", c.Commit).Methods(http.MethodPost)
}

func (c *ImportAPIController) Start(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	body, err := readBody(w, r, conf.Import.MaxUploadSize)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeAPIError(w, r, http.StatusRequestEntityTooLarge, "IMPORT_BODY_TOO_LARGE",
				fmt.Sprintf("upload exceeds the %d byte limit", maxErr.Limit))
			return
		}
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_READ_BODY", "failed to read upload")
		return
	}

	delim := conf.Import.Delimiter()
	if v := r.URL.Query().Get("delimiter"); v != "" {
		runes := []rune(v)
		if len(runes) != 1 {
			writeAPIError(w, r, http.StatusBadRequest, "IMPORT_BAD_DELIMITER", "delimiter must be a single character")
			return
		}
		delim = runes[0]
	}

	session, err := c.imports.Start(string(body), delim)
	if err != nil {
		if errors.Is(err, dataimport.ErrMalformedInput) {
			writeAPIError(w, r, http.StatusUnprocessableEntity, "IMPORT_MALFORMED_INPUT", err.Error())
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "IMPORT_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, mappers.SessionToViewModel(session))
}

// readBody reads the whole upload. Bodies over the cap error out instead of
// being truncated: a cut-off upload would parse and commit with its tail rows
// silently gone.
func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
}

func (c *ImportAPIController) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mappers.SessionToViewModel(session))
}

func (c *ImportAPIController) Abandon(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	c.imports.Abandon(id)
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *ImportAPIController) SetMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}

	var payload map[string]string
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_INVALID_JSON", "invalid json")
		return
	}
	mapping := make(dataimport.Mapping, len(payload))
	for header, field := range payload {
		mapping[header] = dataimport.ParseField(field)
	}

	session, err := c.imports.SetMapping(id, mapping)
	if err != nil {
		c.writeImportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.SessionToViewModel(session))
}

func (c *ImportAPIController) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	session, err := c.imports.Review(r.Context(), id)
	if err != nil {
		c.writeImportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.SessionToViewModel(session))
}

func (c *ImportAPIController) SetResolution(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_BAD_INDEX", "invalid duplicate index")
		return
	}

	var payload struct {
		Resolution string `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_INVALID_JSON", "invalid json")
		return
	}
	resolution, ok2 := dataimport.ParseResolution(strings.TrimSpace(payload.Resolution))
	if !ok2 {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_BAD_RESOLUTION", "resolution must be skip, update, or insert_as_new")
		return
	}

	if err := c.imports.SetResolution(id, index, resolution); err != nil {
		c.writeImportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *ImportAPIController) ReviseRow(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	rowIndex, err := strconv.Atoi(mux.Vars(r)["row"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_BAD_ROW", "invalid row index")
		return
	}

	var payload struct {
		Column int    `json:"column"`
		Value  string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_INVALID_JSON", "invalid json")
		return
	}

	failed, err := c.imports.ReviseRow(id, rowIndex, payload.Column, payload.Value)
	if err != nil {
		c.writeImportError(w, r, err)
		return
	}
	if failed != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"resolved":   false,
			"failed_row": mappers.FailedRowToViewModel(failed),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resolved": true})
}

func (c *ImportAPIController) SkipRow(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	rowIndex, err := strconv.Atoi(mux.Vars(r)["row"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_BAD_ROW", "invalid row index")
		return
	}
	if err := c.imports.SkipRow(id, rowIndex); err != nil {
		c.writeImportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *ImportAPIController) Commit(w http.ResponseWriter, r *http.Request) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return
	}
	force := r.URL.Query().Get("force") == "true"

	report, err := c.imports.Commit(r.Context(), id, force)
	if err != nil {
		if errors.Is(err, dataimport.ErrUnresolvedRows) {
			writeAPIError(w, r, http.StatusConflict, "IMPORT_UNRESOLVED_ROWS", err.Error())
			return
		}
		c.writeImportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (c *ImportAPIController) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "IMPORT_BAD_SESSION_ID", "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func (c *ImportAPIController) session(w http.ResponseWriter, r *http.Request) (*dataimport.Session, bool) {
	id, ok := c.sessionID(w, r)
	if !ok {
		return nil, false
	}
	session, err := c.imports.Get(id)
	if err != nil {
		writeAPIError(w, r, http.StatusNotFound, "IMPORT_SESSION_NOT_FOUND", "import session not found")
		return nil, false
	}
	return session, true
}

func (c *ImportAPIController) writeImportError(w http.ResponseWriter, r *http.Request, err error) {
	var stageErr *dataimport.InvalidStageError
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		writeAPIError(w, r, http.StatusNotFound, "IMPORT_SESSION_NOT_FOUND", "import session not found")
	case errors.Is(err, dataimport.ErrRowNotFound):
		writeAPIError(w, r, http.StatusNotFound, "IMPORT_ROW_NOT_FOUND", "row not found in failed set")
	case errors.As(err, &stageErr):
		writeAPIError(w, r, http.StatusConflict, "IMPORT_INVALID_STAGE", stageErr.Error())
	default:
		writeAPIError(w, r, http.StatusInternalServerError, "IMPORT_INTERNAL", "internal error")
	}
}
