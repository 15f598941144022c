// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportPostsBatchAsJSON(t *testing.T) {
	var got []Metric
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL)
	err := transport.Send(context.Background(), []Metric{
		{Name: "cpu.user", Instance: "all", Value: 42.5, Unix: 1700000000},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cpu.user", got[0].Name)
	assert.Equal(t, 42.5, got[0].Value)
}

func TestHTTPTransportReturnsErrorOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.URL)
	err := transport.Send(context.Background(), []Metric{{Name: "cpu.user"}})
	assert.Error(t, err)
}
