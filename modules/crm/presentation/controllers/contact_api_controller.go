package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
	"github.com/dazedniteman/pathpal-crm/modules/crm/presentation/mappers"
	"github.com/dazedniteman/pathpal-crm/modules/crm/presentation/viewmodels"
	"github.com/dazedniteman/pathpal-crm/modules/crm/services"
	"github.com/dazedniteman/pathpal-crm/pkg/application"
	"github.com/dazedniteman/pathpal-crm/pkg/configuration"
)

type ContactAPIController struct {
	app      application.Application
	contacts *services.ContactService
	basePath string
}

func NewContactAPIController(app application.Application) application.Controller {
	return &ContactAPIController{
		app:      app,
		contacts: app.Service(services.ContactService{}).(*services.ContactService),
		basePath: "/crm/api",
	}
}

func (c *ContactAPIController) Key() string {
	return c.basePath + "/contacts"
}

func (c *ContactAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/contacts", c.List).Methods(http.MethodGet)
	router.HandleFunc("/contacts", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/contacts/{id}", c.GetByID).Methods(http.MethodGet)
}

func (c *ContactAPIController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()

	limit := conf.PageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeAPIError(w, r, http.StatusBadRequest, "CONTACT_BAD_LIMIT", "invalid limit")
			return
		}
		limit = parsed
	}
	if limit > conf.MaxPageSize {
		limit = conf.MaxPageSize
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeAPIError(w, r, http.StatusBadRequest, "CONTACT_BAD_OFFSET", "invalid offset")
			return
		}
		offset = parsed
	}

	params := &contact.FindParams{
		Q:      r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}
	items, total, err := c.contacts.GetPaginated(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "CONTACT_INTERNAL", "internal error")
		return
	}

	out := make([]*viewmodels.ContactListItem, 0, len(items))
	for _, item := range items {
		out = append(out, mappers.ContactToListItem(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  out,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *ContactAPIController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CONTACT_BAD_ID", "invalid contact id")
		return
	}

	found, err := c.contacts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "CONTACT_NOT_FOUND", "contact not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "CONTACT_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.ContactToListItem(found))
}

func (c *ContactAPIController) Create(w http.ResponseWriter, r *http.Request) {
	dto := &contact.CreateDTO{}
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CONTACT_INVALID_JSON", "invalid json")
		return
	}

	if fieldErrors, ok := dto.Ok(); !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":   "CONTACT_VALIDATION",
			"errors": fieldErrors,
		})
		return
	}

	created, err := c.contacts.Create(r.Context(), dto)
	if err != nil {
		if errors.Is(err, contact.ErrEmailTaken) {
			writeAPIError(w, r, http.StatusConflict, "CONTACT_EMAIL_TAKEN", "a contact with this email already exists")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "CONTACT_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, mappers.ContactToListItem(created))
}
