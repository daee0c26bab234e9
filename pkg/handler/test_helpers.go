// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/agriardyan/phasmo-larp-companion/pkg/lights"
	"github.com/agriardyan/phasmo-larp-companion/pkg/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestStore creates a session store backed by miniredis
func setupTestStore(mr *miniredis.Miniredis) *session.Store {
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	storage := session.NewRedisStorage(client, session.RedisStorageConfig{})
	return session.NewStore(context.Background(), storage, session.StoreConfig{})
}

// setupTestLightAPI starts a fake lighting API answering with status
func setupTestLightAPI(status int) (*httptest.Server, *int32) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	return server, &calls
}

// setupTestMux wires both handlers onto a fresh mux
func setupTestMux(store StateStore, controller LightController) *http.ServeMux {
	mux := http.NewServeMux()
	NewState(store).Register(mux)
	NewLights(controller).Register(mux)
	return mux
}

func newTestController(server *httptest.Server, token string) *lights.Controller {
	return lights.NewController(server.Client(), lights.ControllerConfig{
		Token:   token,
		BaseURL: server.URL,
	}, lights.DefaultPresets())
}
