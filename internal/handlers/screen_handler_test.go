package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) currentScreen(t *testing.T, token string) ScreenResponse {
	t.Helper()

	w := e.doJSON(t, http.MethodGet, "/api/v1/session/screen", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScreenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestScreen_LoggedOut(t *testing.T) {
	env := setupTestRouter(t)

	t.Run("No token", func(t *testing.T) {
		resp := env.currentScreen(t, "")
		assert.Equal(t, ScreenLogin, resp.Screen)
		assert.Equal(t, "Project Day 2025 Navigator", resp.EventName)
		assert.Empty(t, resp.Data)
	})

	t.Run("Unknown token", func(t *testing.T) {
		resp := env.currentScreen(t, "not-a-real-token")
		assert.Equal(t, ScreenLogin, resp.Screen)
	})

	t.Run("After logout", func(t *testing.T) {
		token := env.login(t, "Asha", "9876543210")
		w := env.doJSON(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := env.currentScreen(t, token)
		assert.Equal(t, ScreenLogin, resp.Screen)
	})
}

func TestScreen_FollowsSessionState(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t, "Asha", "9876543210")

	resp := env.currentScreen(t, token)
	assert.Equal(t, ScreenBrowse, resp.Screen)
	assert.Equal(t, "Project Day 2025 Navigator", resp.EventName)
	assert.Equal(t, "Yuvabharathi Public School", resp.VenueName)
	assert.Contains(t, resp.Data, "venues")

	w := env.doJSON(t, http.MethodPost, "/api/v1/session/select-venue", token, gin.H{"venue_id": 1})
	require.Equal(t, http.StatusOK, w.Code)

	resp = env.currentScreen(t, token)
	assert.Equal(t, ScreenMap, resp.Screen)
	assert.Contains(t, resp.Data, "venue")
	assert.Contains(t, resp.Data, "route")

	w = env.doJSON(t, http.MethodPost, "/api/v1/session/arrive", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp = env.currentScreen(t, token)
	assert.Equal(t, ScreenFeedback, resp.Screen)
	assert.Contains(t, resp.Data, "venue")

	w = env.doJSON(t, http.MethodPost, "/api/v1/session/feedback", token, gin.H{"rating": 5})
	require.Equal(t, http.StatusOK, w.Code)

	resp = env.currentScreen(t, token)
	assert.Equal(t, ScreenDone, resp.Screen)
}

func TestScreen_DoneThenNewSelection(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t, "Asha", "9876543210")

	for _, step := range []struct {
		method string
		path   string
		body   gin.H
	}{
		{http.MethodPost, "/api/v1/session/select-venue", gin.H{"venue_id": 1}},
		{http.MethodPost, "/api/v1/session/arrive", nil},
		{http.MethodPost, "/api/v1/session/feedback", gin.H{"rating": 4}},
	} {
		w := env.doJSON(t, step.method, step.path, token, step.body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	require.Equal(t, ScreenDone, env.currentScreen(t, token).Screen)

	// Picking the next venue returns the visitor to the map
	w := env.doJSON(t, http.MethodPost, "/api/v1/session/select-venue", token, gin.H{"venue_id": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ScreenMap, env.currentScreen(t, token).Screen)
}

func TestBuildRoute(t *testing.T) {
	env := setupTestRouter(t)

	venue, _, err := env.sessions.SelectVenue(env.login(t, "Asha", "9876543210"), 1)
	require.NoError(t, err)

	route := buildRoute(env.cfg, venue)
	assert.Equal(t, env.cfg.Event.CenterLat, route.Center.Lat)
	assert.Equal(t, env.cfg.Event.CenterLon, route.Center.Lon)
	assert.Equal(t, venue.Lat, route.Destination.Lat)
	assert.Equal(t, venue.Lon, route.Destination.Lon)
	assert.Equal(t, "blue", route.Center.Color)
	assert.Equal(t, "red", route.Destination.Color)
	require.Len(t, route.Polyline, 2)
	assert.Equal(t, [2]float64{route.Center.Lat, route.Center.Lon}, route.Polyline[0])
	assert.Equal(t, [2]float64{venue.Lat, venue.Lon}, route.Polyline[1])
}
