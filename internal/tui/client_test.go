package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tokens", r.URL.Path)
		_, _ = w.Write([]byte(`{"tokens":[
			{"mint":"m1","symbol":"DOGEP","name":"Doge Premium","price":"0.0003066","market_cap":"214620","curve_progress":14.28,"curve_complete":false},
			{"mint":"m2","symbol":"MOON","name":"Mooner","price":"0.002","market_cap":"1400000","curve_progress":100,"curve_complete":true}
		],"count":2}`))
	}))
	defer server.Close()

	rows, err := NewAPIClient(server.URL).FetchTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "DOGEP", rows[0].Symbol)
	assert.Equal(t, "0.0003066", rows[0].Price)
	assert.False(t, rows[0].Complete)
	assert.True(t, rows[1].Complete)
}

func TestFetchTokens_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewAPIClient(server.URL).FetchTokens(context.Background())
	assert.ErrorContains(t, err, "status 502")
}

func TestToTableRows(t *testing.T) {
	rows := toTableRows([]TokenRow{
		{Symbol: "DOGEP", Name: "Doge Premium", Price: "0.0003066", MarketCap: "214620", Progress: 14.285, Complete: false},
		{Symbol: "MOON", Name: "Mooner", Price: "0.002", MarketCap: "1400000", Progress: 100, Complete: true},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "14.3%", rows[0][4])
	assert.Equal(t, "trading", rows[0][5])
	assert.Equal(t, "migrated", rows[1][5])
}
