package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const uploadCSV = "name,email\nAlice,a@x.co\nBob,b@x.co\nCarol,c@x.co\n"

func TestReadBody_RejectsOversizedUpload(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/crm/api/imports", strings.NewReader(uploadCSV))
	w := httptest.NewRecorder()

	_, err := readBody(w, r, 30)
	var maxErr *http.MaxBytesError
	require.ErrorAs(t, err, &maxErr)
	require.Equal(t, int64(30), maxErr.Limit)
}

func TestReadBody_ReadsFullBodyUnderCap(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/crm/api/imports", strings.NewReader(uploadCSV))
	w := httptest.NewRecorder()

	body, err := readBody(w, r, int64(len(uploadCSV)))
	require.NoError(t, err)
	require.Equal(t, uploadCSV, string(body))
}
