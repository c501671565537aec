package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
	"github.com/marketmind/researchd/internal/router"
)

type fakeRouter struct {
	decision router.Decision
}

func (f *fakeRouter) Route(string, *domain.MemoryRecord, domain.Preferences) router.Decision {
	return f.decision
}

type fakeGatherer struct {
	bundle domain.EvidenceBundle
	calls  int
}

func (f *fakeGatherer) Gather(context.Context, *domain.QueryContext) domain.EvidenceBundle {
	f.calls++
	return f.bundle
}

type fakeAssessor struct {
	confidence     domain.Confidence
	reasons        []domain.Reason
	contradictions []domain.Contradiction
}

func (f *fakeAssessor) Assess(*domain.EvidenceBundle) (domain.Confidence, []domain.Reason, []domain.Contradiction) {
	if f.confidence == "" {
		return domain.ConfidenceMedium, nil, nil
	}
	return f.confidence, f.reasons, f.contradictions
}

type fakeMemory struct {
	prefs    domain.Preferences
	last     *domain.MemoryRecord
	writeErr error
	written  []domain.MemoryRecord
}

func (f *fakeMemory) LastTurn() *domain.MemoryRecord { return f.last }

func (f *fakeMemory) Write(_ context.Context, rec domain.MemoryRecord) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, rec)
	return nil
}

func (f *fakeMemory) GetPreferences() domain.Preferences {
	if f.prefs.RiskTolerance == "" {
		return domain.DefaultPreferences()
	}
	return f.prefs
}

type fakeSynth struct {
	text string
	err  error
}

func (f *fakeSynth) Synthesize(context.Context, *domain.QueryContext, domain.Preferences) (string, error) {
	return f.text, f.err
}

var errSynthDown = errors.New("generation unavailable")

type deps struct {
	router   *fakeRouter
	gatherer *fakeGatherer
	assessor *fakeAssessor
	memory   *fakeMemory
	synth    *fakeSynth
}

func newTestPipeline(d deps) *Pipeline {
	if d.router == nil {
		d.router = &fakeRouter{}
	}
	if d.gatherer == nil {
		d.gatherer = &fakeGatherer{}
	}
	if d.assessor == nil {
		d.assessor = &fakeAssessor{}
	}
	if d.memory == nil {
		d.memory = &fakeMemory{}
	}
	if d.synth == nil {
		d.synth = &fakeSynth{text: "Synthesized report."}
	}
	return New(d.router, d.gatherer, d.assessor, d.memory, d.synth, DefaultConfig(), zap.NewNop())
}
