package chi

import (
	"context"
	"net/http/httptest"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

type fakeRunner struct {
	qc    *domain.QueryContext
	err   error
	calls int
	query string
	mode  domain.AnalysisMode
}

func (f *fakeRunner) Run(_ context.Context, query string, mode domain.AnalysisMode) (*domain.QueryContext, error) {
	f.calls++
	f.query = query
	f.mode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.qc, nil
}

type fakeIndexer struct {
	added int
	err   error
	docs  []domain.Document
}

func (f *fakeIndexer) Index(_ context.Context, docs []domain.Document) (int, error) {
	f.docs = docs
	if f.err != nil {
		return 0, f.err
	}
	return f.added, nil
}

type fakeMemory struct {
	prefs      domain.Preferences
	updateErr  error
	suggestion string
	lastDelta  domain.PreferenceDelta
}

func (f *fakeMemory) GetPreferences() domain.Preferences { return f.prefs }

func (f *fakeMemory) UpdatePreferences(_ context.Context, delta domain.PreferenceDelta) (domain.Preferences, error) {
	f.lastDelta = delta
	if f.updateErr != nil {
		return domain.Preferences{}, f.updateErr
	}
	return delta.Apply(f.prefs), nil
}

func (f *fakeMemory) SuggestNext() string { return f.suggestion }

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

type serverFixture struct {
	runner  *fakeRunner
	indexer *fakeIndexer
	memory  *fakeMemory
	pinger  *fakePinger
	ts      *httptest.Server
}

func newServerFixture() *serverFixture {
	f := &serverFixture{
		runner:  &fakeRunner{},
		indexer: &fakeIndexer{},
		memory:  &fakeMemory{prefs: domain.DefaultPreferences()},
		pinger:  &fakePinger{},
	}
	srv := NewServer(f.runner, f.indexer, f.memory, f.pinger, zap.NewNop())
	f.ts = httptest.NewServer(srv.Routes())
	return f
}
