package rutapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "bayi-rut/internal/common/errors"
	httpclient "bayi-rut/internal/common/http"
	"bayi-rut/internal/common/logger"
	"bayi-rut/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSession = &models.Session{
	Token: "tok-abc",
	User:  models.UserProfile{ID: "D-7", Name: "Mehmet"},
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	log := logger.NewTestLogger(t)
	return NewClient(httpclient.NewClient(server.URL, 2*time.Second, "rutctl/test", log), log)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestListDays(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"bare array", `["Pazartesi","Salı"]`, []string{"Pazartesi", "Salı"}},
		{"envelope", `{"success":true,"data":["Cuma"]}`, []string{"Cuma"}},
		{"envelope without data", `{"success":true}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/rut/gunler", r.URL.Path)
				assert.Equal(t, "D-7", r.URL.Query().Get("dst"))
				assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, tt.body)
			})

			days, err := c.ListDays(context.Background(), testSession)
			require.NoError(t, err)
			assert.Equal(t, tt.want, days)
		})
	}
}

func TestListStops(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rut", r.URL.Path)
		assert.Equal(t, "Çarşamba", r.URL.Query().Get("gun"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":[
			{"sira":1,"musteriKodu":"A","musteriAdi":"Alfa","musteriDurum":"Aktif","grup":"G1"},
			{"sira":2,"musteriKodu":"B","musteriAdi":"Beta","musteriDurum":"Pasif","grup":"G1","adres":"Konak"}
		]}`)
	})

	stops, err := c.ListStops(context.Background(), testSession, "Çarşamba")
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "B", stops[1].CustomerCode)
	assert.Equal(t, models.CustomerStatusPassive, stops[1].CustomerStatus.Kind())
	assert.Equal(t, "Konak", stops[1].Address)
}

func TestListStops_EmptyIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	stops, err := c.ListStops(context.Background(), testSession, "Pazar")
	require.NoError(t, err)
	assert.NotNil(t, stops)
	assert.Empty(t, stops)
}

func TestCall_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    apperrors.ErrorCode
		message string
	}{
		{"success false with message", http.StatusOK, `{"success":false,"message":"Gün kapalı"}`, apperrors.ErrCodeBackendRejection, "Gün kapalı"},
		{"success false without message", http.StatusOK, `{"success":false}`, apperrors.ErrCodeBackendRejection, apperrors.GenericFailureMessage},
		{"server error", http.StatusInternalServerError, `{"success":false,"message":"db down"}`, apperrors.ErrCodeBackendRejection, "db down"},
		{"not json", http.StatusOK, `<html>`, apperrors.ErrCodeBackendRejection, apperrors.GenericFailureMessage},
		{"unauthorized", http.StatusUnauthorized, ``, apperrors.ErrCodeSession, ""},
		{"gateway", http.StatusBadGateway, ``, apperrors.ErrCodeNetwork, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.ListDays(context.Background(), testSession)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.code), err.Error())
			if tt.message != "" {
				stdErr, ok := apperrors.AsStandard(err)
				require.True(t, ok)
				assert.Equal(t, tt.message, stdErr.Message)
			}
		})
	}
}

func TestRequiresSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.ListDays(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSession))
	_, err = c.ListStops(context.Background(), &models.Session{}, "Pazartesi")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSession))
	_, err = c.ListRequests(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSession))
}

func TestSubmitRequest(t *testing.T) {
	var got models.SubmitPayload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rut/talep", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, `{"success":true,"message":"Talep oluşturuldu","data":{"id":311}}`)
	})

	payload := models.SubmitPayload{
		RepresentativeID: "D-7",
		Day:              "Pazartesi",
		Stops: []models.VisitStop{
			{Sequence: 1, CustomerCode: "B"},
			{Sequence: 2, CustomerCode: "A"},
		},
	}
	receipt, err := c.SubmitRequest(context.Background(), testSession, payload)
	require.NoError(t, err)
	assert.Equal(t, models.RequestID("311"), receipt.ID)
	assert.Equal(t, "Talep oluşturuldu", receipt.Message)
	assert.Equal(t, payload, got)
}

func TestSubmitRequest_InvalidPayloadNeverSent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.SubmitRequest(context.Background(), testSession, models.SubmitPayload{
		RepresentativeID: "D-7",
		Day:              "Pazartesi",
		Stops:            []models.VisitStop{},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestListRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rut/talepler", r.URL.Path)
		writeJSON(w, http.StatusOK, `[
			{"id":2,"dstId":"D-7","gun":"Salı","olusturmaTarihi":"2024-05-02 10:00:00","durum":"beklemede","duraklar":[]},
			{"id":1,"dstId":"D-8","gun":"Pazartesi","olusturmaTarihi":"2024-05-01 09:00:00","durum":"onaylandi","duraklar":[]}
		]`)
	})

	reqs, err := c.ListRequests(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, models.RequestID("2"), reqs[0].ID, "backend order is kept")
	assert.Equal(t, models.StatusApproved, reqs[1].Status)
}

func TestListRequests_SchemaViolation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"gun":"Salı"}]}`)
	})

	_, err := c.ListRequests(context.Background(), testSession)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBackendRejection))
}

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   apperrors.ErrorCode
	}{
		{"ok envelope", http.StatusOK, `{"success":true,"affected":1}`, ""},
		{"ok empty body", http.StatusNoContent, ``, ""},
		{"conflict", http.StatusConflict, `{"success":false,"message":"Talep zaten onaylandı"}`, apperrors.ErrCodeInvalidTransition},
		{"nothing affected", http.StatusOK, `{"success":true,"affected":0}`, apperrors.ErrCodeInvalidTransition},
		{"rejected", http.StatusOK, `{"success":false,"message":"Yetkiniz yok"}`, apperrors.ErrCodeBackendRejection},
		{"unavailable", http.StatusServiceUnavailable, ``, apperrors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/rut/talep/17", r.URL.Path)
				assert.Equal(t, "reddedildi", r.URL.Query().Get("durum"))
				if tt.body == "" {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})

			err := c.SetStatus(context.Background(), testSession, "17", models.StatusRejected)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsCode(err, tt.code), "%v", err)
		})
	}
}

func TestSetStatus_ConflictKeepsServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"success":false,"message":"Talep zaten onaylandı"}`)
	})

	err := c.SetStatus(context.Background(), testSession, "17", models.StatusApproved)
	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, "Talep zaten onaylandı", stdErr.Message)
}

func TestExportRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rut/talep/9/excel", r.URL.Path)
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="rut talep 9.xlsx"`)
		w.Write([]byte("PK\x03\x04data"))
	})

	export, err := c.ExportRequest(context.Background(), testSession, "9")
	require.NoError(t, err)
	assert.Equal(t, "rut talep 9.xlsx", export.Filename)
	assert.Equal(t, []byte("PK\x03\x04data"), export.Data)
}

func TestExportRequest_JSONFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"Dosya üretilemedi"}`},
		{"not found", http.StatusNotFound, `{"success":false,"message":"Talep bulunamadı"}`},
		{"json but no file", http.StatusOK, `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			export, err := c.ExportRequest(context.Background(), testSession, "9")
			assert.Nil(t, export)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeBackendRejection), "%v", err)
		})
	}
}

func TestFilenameFrom(t *testing.T) {
	assert.Equal(t, "", filenameFrom(""))
	assert.Equal(t, "a.xlsx", filenameFrom(`attachment; filename=a.xlsx`))
	assert.Equal(t, "", filenameFrom(`attachment; filename=`))
	assert.Equal(t, "", filenameFrom(`;;;`))
}

func TestDecodeBody(t *testing.T) {
	d, err := decodeBody([]byte(`{"id":1}`))
	require.NoError(t, err)
	assert.False(t, d.enveloped, "object without success key is a bare value")
	assert.True(t, d.success)

	_, err = decodeBody([]byte(`{"success":`))
	assert.Error(t, err)

	d, err = decodeBody([]byte("  "))
	require.NoError(t, err)
	assert.True(t, d.success)
}
