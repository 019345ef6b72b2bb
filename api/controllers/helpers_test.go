package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/emlakhub/emlakhub-backend/api/middleware"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	rc := chi.RouteContext(req.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
	}
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func withActor(req *http.Request, actor visibility.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func seller() visibility.Actor {
	return visibility.Actor{ID: uuid.New(), Role: enums.UserRoleSeller}
}

func admin() visibility.Actor {
	return visibility.Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
