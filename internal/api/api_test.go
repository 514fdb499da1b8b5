package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"hostel-backend/config"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/db"
	"hostel-backend/internal/mw"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/service"
	"hostel-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	hub    *realtime.Hub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := db.Init(&config.DatabaseConfig{
		DSN:      "file:api_" + name + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	policy, err := auth.NewPolicy(gormDB)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	s := store.NewGormStore(gormDB)
	hub := realtime.NewHub()
	svc := service.New(service.Deps{
		Store:      s,
		Policy:     policy,
		Publisher:  hub,
		Tokens:     tokens,
		BcryptCost: bcrypt.MinCost,
	})
	h := NewHandler(Deps{
		Store:     s,
		Services:  svc,
		Tokens:    tokens,
		Policy:    policy,
		Hub:       hub,
		Keepalive: 50 * time.Millisecond,
	})
	return &testAPI{
		router: NewRouter(h, RouterConfig{RateLimit: rate.Limit(1000), RateBurst: 1000}),
		hub:    hub,
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) register(t *testing.T, name, role, token string) service.Session {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/register", token, map[string]string{
		"name": name, "email": strings.ToLower(name) + "@example.com", "password": "long-enough", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.Session](t, w)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := decode[mw.ErrorBody](t, w)
	assert.Equal(t, "unauthorized", string(body.Type))
}

func TestAPI_HostelFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.register(t, "Warden", "ADMIN", "").Token
	student := api.register(t, "Asha", "", "")

	// a second admin needs an admin caller
	w := api.do(t, http.MethodPost, "/api/auth/register", student.Token, map[string]string{
		"name": "Mallory", "email": "mallory@example.com", "password": "long-enough", "role": "ADMIN",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	api.register(t, "Deputy", "ADMIN", admin)

	w = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "asha@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodGet, "/api/me", student.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[service.Me](t, w)
	require.NotNil(t, me.Student)
	studentID := me.Student.ID

	w = api.do(t, http.MethodPost, "/api/rooms", student.Token, map[string]any{"room_number": "101", "bed_count": 2})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/rooms", admin, map[string]any{"room_number": "101", "bed_count": 2, "rent_amount": 4500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	room := decode[struct {
		ID    string `json:"id"`
		Floor int    `json:"floor"`
		Beds  []struct {
			ID        string `json:"id"`
			BedNumber string `json:"bed_number"`
		} `json:"beds"`
	}](t, w)
	assert.Equal(t, 1, room.Floor)
	require.Len(t, room.Beds, 2)

	w = api.do(t, http.MethodPost, "/api/rooms", admin, map[string]any{"room_number": "101", "bed_count": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/students/"+studentID+"/assign", admin, map[string]string{"bed_id": room.Beds[0].ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/beds?available=true", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]json.RawMessage](t, w), 1)

	w = api.do(t, http.MethodPost, "/api/beds/"+room.Beds[1].ID+"/toggle", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "free beds are occupied by assignment only")

	w = api.do(t, http.MethodPost, "/api/complaints", student.Token, map[string]string{"category": "Noise", "description": "music at 2am"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	complaintID := decode[struct {
		ID string `json:"id"`
	}](t, w).ID

	w = api.do(t, http.MethodPost, "/api/complaints/"+complaintID+"/response", admin, map[string]string{"response": "spoke to them"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"IN_PROGRESS"`)

	w = api.do(t, http.MethodPatch, "/api/complaints/"+complaintID+"/status", admin, map[string]string{"status": "RESOLVED"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/rent", admin, map[string]string{"student_id": studentID, "month": "2024/13"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[mw.ErrorBody](t, w)
	assert.Equal(t, "YYYY-MM", body.Fields["month"])

	w = api.do(t, http.MethodPost, "/api/rent", admin, map[string]string{"student_id": studentID, "month": "2024-6"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rentID := decode[struct {
		ID string `json:"id"`
	}](t, w).ID

	w = api.do(t, http.MethodPost, "/api/rent/"+rentID+"/paid", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodPost, "/api/rent/"+rentID+"/overdue", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/rent", admin, map[string]any{"student_id": "no-such-student", "month": "2024-6", "amount": 5000})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/rent/student/"+studentID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]json.RawMessage](t, w), 1)
	w = api.do(t, http.MethodGet, "/api/rent?student_id="+studentID+"&status=PAID", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]json.RawMessage](t, w), 1)
	w = api.do(t, http.MethodGet, "/api/rent/student/no-such-student", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/rent/summary", student.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4500.0, decode[service.RentSummary](t, w).Collected)

	w = api.do(t, http.MethodPost, "/api/notices", admin, map[string]string{"title": "Water cut", "message": "Tuesday"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = api.do(t, http.MethodGet, "/api/notices?limit=x", student.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[service.DashboardSummary](t, w)
	assert.EqualValues(t, 1, summary.OccupiedBeds)
	assert.EqualValues(t, 0, summary.OpenComplaints)

	w = api.do(t, http.MethodGet, "/api/dashboard", student.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodDelete, "/api/rooms/"+room.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), studentID)

	w = api.do(t, http.MethodGet, "/api/admin/consistency", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clean":true`)
}

func TestChanges_StreamsEvents(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "Warden", "ADMIN", "").Token

	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/changes?tables=rooms&event=INSERT", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sseContentType, resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readUntil := func(prefix string) string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}

	readUntil(": connected")
	api.hub.Publish(ctx, realtime.Changed(realtime.EventDelete, realtime.TableRooms)...)
	api.hub.Publish(ctx, realtime.Changed(realtime.EventInsert, realtime.TableNotices)...)
	api.hub.Publish(ctx, realtime.Changed(realtime.EventInsert, realtime.TableRooms)...)

	readUntil("event:change")
	data := readUntil("data:")
	var e realtime.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data:")), &e))
	assert.Equal(t, realtime.TableRooms, e.Table)
	assert.Equal(t, realtime.EventInsert, e.Type)

	readUntil(": keepalive")

	cancel()
	assert.Eventually(t, func() bool { return api.hub.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond,
		"subscription released on disconnect")
}

func TestChanges_RejectsUnknownTable(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "Warden", "ADMIN", "").Token

	w := api.do(t, http.MethodGet, "/api/changes?tables=casbin_rule", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, api.hub.SubscriberCount())
}

func TestChanges_DeliversEveryTableOfOneOperation(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "Warden", "ADMIN", "").Token

	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/changes?tables=rooms,beds", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readUntil := func(prefix string) string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}
	readUntil(": connected")

	// creating a room inserts the room and its beds
	w := api.do(t, http.MethodPost, "/api/rooms", token, map[string]any{"room_number": "310", "bed_count": 2, "rent_amount": 4000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	seen := map[string]bool{}
	for len(seen) < 2 {
		data := readUntil("data:")
		var e realtime.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data:")), &e))
		assert.Equal(t, realtime.EventInsert, e.Type)
		seen[e.Table] = true
	}
	assert.True(t, seen[realtime.TableRooms])
	assert.True(t, seen[realtime.TableBeds])
}
