package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"
)

func dialNotifications(t *testing.T, f *testFixture) (*websocket.Conn, context.Context) {
	t.Helper()

	ts := httptest.NewServer(f.server)
	t.Cleanup(ts.Close)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/notifications"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })

	return conn, ctx
}

func TestNotificationSocketHandshake(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	conn, ctx := dialNotifications(t, f)
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"token": pair.AccessToken}))

	var msg map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, "connected", msg["type"])
	require.Equal(t, testStoreID, msg["store_id"])
}

func TestNotificationSocketRejectsInvalidToken(t *testing.T) {
	f := setupTestFixture(t)

	conn, ctx := dialNotifications(t, f)
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"token": "forged"}))

	var msg map[string]any
	err := wsjson.Read(ctx, conn, &msg)
	require.Error(t, err)
	require.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestStoreUpdatePublishesNotification(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	conn, ctx := dialNotifications(t, f)
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"token": pair.AccessToken}))

	var msg map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &msg)) // connected ack

	rec := f.do(t, http.MethodPut, "/stores/"+testStoreID, pair.AccessToken, map[string]string{
		"name": "Store One Live",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, "store.updated", msg["type"])
	require.Equal(t, testStoreID, msg["store_id"])
}
