package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arpanauts/biomapper/pkg/observability"
)

// mockService is a testify mock of the lookup service.
type mockService struct {
	mock.Mock
}

func (m *mockService) Resolve(ctx context.Context, ids []string) (map[string]Resolution, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]Resolution), args.Error(1)
}

func TestConfidenceTable(t *testing.T) {
	tests := []struct {
		resType    ResolutionType
		confidence float64
	}{
		{ResolutionPrimary, 1.0},
		{ResolutionSecondary, 0.9},
		{ResolutionDemerged, 0.85},
		{ResolutionObsolete, 0.0},
		{ResolutionError, 0.0},
		{ResolutionUnknown, 0.5},
		{ResolutionType("something_else"), 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.resType), func(t *testing.T) {
			assert.Equal(t, tt.confidence, tt.resType.Confidence())
		})
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag     string
		resType ResolutionType
		detail  string
	}{
		{"primary", ResolutionPrimary, ""},
		{"secondary:P67890", ResolutionSecondary, "P67890"},
		{"demerged", ResolutionDemerged, ""},
		{"obsolete", ResolutionObsolete, ""},
		{"ERROR", ResolutionError, ""},
		{"Secondary:Q14213", ResolutionSecondary, "Q14213"},
		{"merged:whatever", ResolutionUnknown, "whatever"},
		{"", ResolutionUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			resType, detail := ParseTag(tt.tag)
			assert.Equal(t, tt.resType, resType)
			assert.Equal(t, tt.detail, detail)
		})
	}
}

func TestResolveAllSecondaryAccession(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, []string{"P12345"}).Return(map[string]Resolution{
		"P12345": {InputID: "P12345", PrimaryIDs: []string{"P67890"}, Type: ResolutionSecondary},
	}, nil)

	r := New(svc, WithOntology("protein_uniprot"))
	outcome, err := r.ResolveAll(context.Background(), []string{"P12345"})
	require.NoError(t, err)

	assert.Equal(t, []string{"P67890"}, outcome.Resolved)
	require.Len(t, outcome.Records, 1)
	rec := outcome.Records[0]
	assert.Equal(t, "P12345", rec.SourceID)
	assert.Equal(t, "P67890", rec.TargetID)
	assert.Equal(t, 0.9, rec.Confidence)
	assert.Equal(t, "historical_resolution", rec.Method)
	svc.AssertExpectations(t)
}

func TestResolveAllDemergedExpansion(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, mock.Anything).Return(map[string]Resolution{
		"P00001": {PrimaryIDs: []string{"P11111", "P22222"}, Type: ResolutionDemerged},
	}, nil)

	r := New(svc)
	outcome, err := r.ResolveAll(context.Background(), []string{"P00001"})
	require.NoError(t, err)

	assert.Equal(t, []string{"P11111", "P22222"}, outcome.Resolved)
	require.Len(t, outcome.Records, 2)
	for _, rec := range outcome.Records {
		assert.Equal(t, "P00001", rec.SourceID)
		assert.Equal(t, 0.85, rec.Confidence)
	}
}

func TestResolveAllObsoleteGating(t *testing.T) {
	results := map[string]Resolution{
		"P99999": {Type: ResolutionObsolete},
		"P12345": {PrimaryIDs: []string{"P12345"}, Type: ResolutionPrimary},
	}

	t.Run("excluded by default", func(t *testing.T) {
		svc := &mockService{}
		svc.On("Resolve", mock.Anything, mock.Anything).Return(results, nil)

		outcome, err := New(svc).ResolveAll(context.Background(), []string{"P99999", "P12345"})
		require.NoError(t, err)

		assert.Equal(t, []string{"P12345"}, outcome.Resolved)
		// Provenance still records the obsolete outcome.
		require.Len(t, outcome.Records, 2)
		assert.Equal(t, "obsolete", outcome.Records[0].Method)
		assert.Equal(t, 0.0, outcome.Records[0].Confidence)
	})

	t.Run("included when configured", func(t *testing.T) {
		svc := &mockService{}
		svc.On("Resolve", mock.Anything, mock.Anything).Return(results, nil)

		outcome, err := New(svc, WithIncludeObsolete(true)).
			ResolveAll(context.Background(), []string{"P99999", "P12345"})
		require.NoError(t, err)

		assert.Equal(t, []string{"P99999", "P12345"}, outcome.Resolved)
	})
}

func TestResolveAllBatching(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, []string{"A1", "A2"}).Return(map[string]Resolution{
		"A1": {PrimaryIDs: []string{"A1"}, Type: ResolutionPrimary},
		"A2": {PrimaryIDs: []string{"A2"}, Type: ResolutionPrimary},
	}, nil)
	svc.On("Resolve", mock.Anything, []string{"A3"}).Return(map[string]Resolution{
		"A3": {PrimaryIDs: []string{"A3"}, Type: ResolutionPrimary},
	}, nil)

	r := New(svc, WithBatchSize(2))
	outcome, err := r.ResolveAll(context.Background(), []string{"A1", "A2", "A3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "A2", "A3"}, outcome.Resolved)
	svc.AssertNumberOfCalls(t, "Resolve", 2)
}

func TestResolveAllBatchFailureIsolated(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, []string{"B1", "B2"}).
		Return(nil, errors.New("service unavailable"))
	svc.On("Resolve", mock.Anything, []string{"B3"}).Return(map[string]Resolution{
		"B3": {PrimaryIDs: []string{"B3"}, Type: ResolutionPrimary},
	}, nil)

	r := New(svc, WithBatchSize(2))
	outcome, err := r.ResolveAll(context.Background(), []string{"B1", "B2", "B3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"B3"}, outcome.Resolved)
	assert.Equal(t, ResolutionError, outcome.Resolutions["B1"].Type)
	assert.Equal(t, ResolutionError, outcome.Resolutions["B2"].Type)
	assert.Equal(t, ResolutionPrimary, outcome.Resolutions["B3"].Type)
}

func TestResolveAllInputDedup(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, []string{"C1"}).Return(map[string]Resolution{
		"C1": {PrimaryIDs: []string{"C1"}, Type: ResolutionPrimary},
	}, nil)

	outcome, err := New(svc).ResolveAll(context.Background(), []string{"C1", "C1", "", "C1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"C1"}, outcome.Resolved)
	svc.AssertNumberOfCalls(t, "Resolve", 1)
}

func TestResolveAllSharedTargetDedup(t *testing.T) {
	// Two secondaries merged into the same primary produce one output
	// identifier but two provenance records.
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, mock.Anything).Return(map[string]Resolution{
		"D1": {PrimaryIDs: []string{"D9"}, Type: ResolutionSecondary},
		"D2": {PrimaryIDs: []string{"D9"}, Type: ResolutionSecondary},
	}, nil)

	outcome, err := New(svc).ResolveAll(context.Background(), []string{"D1", "D2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"D9"}, outcome.Resolved)
	assert.Len(t, outcome.Records, 2)
}

func TestResolveAllUnknownWhenOmitted(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, mock.Anything).Return(map[string]Resolution{}, nil)

	outcome, err := New(svc).ResolveAll(context.Background(), []string{"E1"})
	require.NoError(t, err)

	assert.Empty(t, outcome.Resolved)
	assert.Equal(t, ResolutionUnknown, outcome.Resolutions["E1"].Type)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, 0.5, outcome.Records[0].Confidence)
}

func TestResolveAllCacheHitSkipsService(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Set(context.Background(), "F1",
		Resolution{InputID: "F1", PrimaryIDs: []string{"F9"}, Type: ResolutionSecondary}))

	svc := &mockService{}
	r := New(svc, WithCache(cache))
	outcome, err := r.ResolveAll(context.Background(), []string{"F1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"F9"}, outcome.Resolved)
	svc.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestResolveAllCachePopulatedFromService(t *testing.T) {
	cache := NewMemoryCache()
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, mock.Anything).Return(map[string]Resolution{
		"G1": {InputID: "G1", PrimaryIDs: []string{"G1"}, Type: ResolutionPrimary},
	}, nil)

	_, err := New(svc, WithCache(cache)).ResolveAll(context.Background(), []string{"G1"})
	require.NoError(t, err)

	res, ok, err := cache.Get(context.Background(), "G1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ResolutionPrimary, res.Type)
}

func TestResolveAllConcurrentBatchesDeterministic(t *testing.T) {
	svc := &mockService{}
	for _, id := range []string{"H1", "H2", "H3", "H4"} {
		id := id
		svc.On("Resolve", mock.Anything, []string{id}).Return(map[string]Resolution{
			id: {PrimaryIDs: []string{id + "X"}, Type: ResolutionSecondary},
		}, nil)
	}

	r := New(svc, WithBatchSize(1), WithConcurrency(4))
	outcome, err := r.ResolveAll(context.Background(), []string{"H1", "H2", "H3", "H4"})
	require.NoError(t, err)

	// Output order follows input order regardless of batch completion order.
	assert.Equal(t, []string{"H1X", "H2X", "H3X", "H4X"}, outcome.Resolved)
}

func TestResolveAllContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &mockService{}
	_, err := New(svc).ResolveAll(ctx, []string{"I1"})
	require.Error(t, err)
}

func TestHTTPServiceResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"input_id": "P12345", "resolution": "secondary:P67890"},
			{"input_id": "P11111", "resolution": "primary", "primary_ids": ["P11111"]},
			{"input_id": "P00000", "resolution": "obsolete"}
		]}`))
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, nil)
	got, err := svc.Resolve(context.Background(), []string{"P12345", "P11111", "P00000"})
	require.NoError(t, err)

	assert.Equal(t, ResolutionSecondary, got["P12345"].Type)
	assert.Equal(t, []string{"P67890"}, got["P12345"].PrimaryIDs)
	assert.Equal(t, ResolutionPrimary, got["P11111"].Type)
	assert.Equal(t, ResolutionObsolete, got["P00000"].Type)
	assert.Empty(t, got["P00000"].PrimaryIDs)
}

func TestHTTPServiceRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, &HTTPOptions{
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	_, err := svc.Resolve(context.Background(), []string{"X1"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHTTPServiceClientErrorNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, &HTTPOptions{
		Timeout:      time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})
	_, err := svc.Resolve(context.Background(), []string{"X1"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestResolveAllWithTracer(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, []string{"T1", "T2"}).
		Return(nil, errors.New("service unavailable"))
	svc.On("Resolve", mock.Anything, []string{"T3"}).Return(map[string]Resolution{
		"T3": {PrimaryIDs: []string{"T3"}, Type: ResolutionPrimary},
	}, nil)

	r := New(svc, WithBatchSize(2), WithTracer(observability.NewTracer()))
	outcome, err := r.ResolveAll(context.Background(), []string{"T1", "T2", "T3"})
	require.NoError(t, err)

	// Per-batch spans must not change outcomes, including the failed batch.
	assert.Equal(t, []string{"T3"}, outcome.Resolved)
	assert.Equal(t, ResolutionError, outcome.Resolutions["T1"].Type)
	assert.Equal(t, ResolutionPrimary, outcome.Resolutions["T3"].Type)
}
