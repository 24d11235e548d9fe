package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atharva9281/WindBorne/internal/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, "test-key", ratelimit.New(0), nil, zerolog.Nop())
}

func TestCompanyOverview(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OVERVIEW", r.URL.Query().Get("function"))
		assert.Equal(t, "TEL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"Symbol":"TEL","Name":"TE Connectivity","MarketCapitalization":"45000000000"}`))
	})

	overview, err := client.CompanyOverview(context.Background(), "TEL")
	require.NoError(t, err)
	assert.Equal(t, "TE Connectivity", overview["Name"])
}

func TestCompanyOverviewEmptyObjectIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.CompanyOverview(context.Background(), "BOGUS")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestErrorMessagePayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message":"Invalid API call"}`))
	})

	_, err := client.CompanyOverview(context.Background(), "BOGUS")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNotePayloadIsRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`))
	})

	_, err := client.IncomeStatement(context.Background(), "TEL")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestInformationRateLimitPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Information":"You have hit your rate limit for the day."}`))
	})

	_, err := client.BalanceSheet(context.Background(), "TEL")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestNon200IsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CompanyOverview(context.Background(), "TEL")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIncomeStatement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "INCOME_STATEMENT", r.URL.Query().Get("function"))
		w.Write([]byte(`{"symbol":"TEL","quarterlyReports":[{"totalRevenue":"4100000000"},{"totalRevenue":"4000000000"}]}`))
	})

	income, err := client.IncomeStatement(context.Background(), "TEL")
	require.NoError(t, err)
	require.Len(t, income.QuarterlyReports, 2)
	assert.Equal(t, "4100000000", income.QuarterlyReports[0]["totalRevenue"])
}

func TestUsageRecorderCountsCalls(t *testing.T) {
	recorder := &fakeRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Symbol":"TEL"}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, "k", ratelimit.New(0), recorder, zerolog.Nop())
	_, err := client.CompanyOverview(context.Background(), "TEL")
	require.NoError(t, err)

	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, 0, recorder.errors)
}

type fakeRecorder struct {
	calls  int
	errors int
}

func (f *fakeRecorder) RecordAPICall(time.Time) error { f.calls++; return nil }
func (f *fakeRecorder) RecordError(time.Time) error   { f.errors++; return nil }
