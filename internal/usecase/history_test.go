package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/ports"
)

func testHistory(searcher *fakeSearcher, store *fakeStore, maxPages int) *History {
	return NewHistory(HistoryDeps{
		Searcher:  searcher,
		Recorder:  testRecorder(store, nil, nil),
		Logger:    discardLogger(),
		MaxPages:  maxPages,
		PageDelay: time.Millisecond,
	})
}

func historyHit(title string) domain.Publication {
	pub := testPublication()
	pub.Title = title
	pub.Identifica = title
	return pub
}

func TestHistoryRequiresTerm(t *testing.T) {
	t.Parallel()

	h := testHistory(&fakeSearcher{}, newFakeStore(), 5)
	_, err := h.Run(context.Background(), HistoryParams{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "term is required")
}

func TestHistorySaveRequiresOrgAndCase(t *testing.T) {
	t.Parallel()

	h := testHistory(&fakeSearcher{}, newFakeStore(), 5)
	_, err := h.Run(context.Background(), HistoryParams{Term: "x", Save: true, OrgID: testOrgID})
	require.Error(t, err)
	assert.ErrorContains(t, err, "organization and case id")
}

func TestHistoryAccumulatesAllPages(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{pages: []ports.SearchPage{
		{Hits: []domain.Publication{historyHit("p1"), historyHit("p2")}, TotalPages: 3, CurrentPage: 1},
		{Hits: []domain.Publication{historyHit("p3")}, TotalPages: 3, CurrentPage: 2},
		{Hits: []domain.Publication{historyHit("p4")}, TotalPages: 3, CurrentPage: 3},
	}}
	h := testHistory(searcher, newFakeStore(), 5)

	hits, err := h.Run(context.Background(), HistoryParams{Term: "1234567", FromDate: "01-01-2020", ToDate: "31-12-2025"})
	require.NoError(t, err)
	assert.Len(t, hits, 4)

	require.Len(t, searcher.queries, 3, "stops once the reported last page is fetched")
	assert.Equal(t, 1, searcher.queries[0].Page)
	assert.Equal(t, 3, searcher.queries[2].Page)
	assert.Equal(t, "01-01-2020", searcher.queries[0].FromDate)
}

func TestHistoryStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{pages: []ports.SearchPage{
		{Hits: []domain.Publication{historyHit("p1")}, TotalPages: 10, CurrentPage: 1},
		{Hits: nil, TotalPages: 10, CurrentPage: 2},
	}}
	h := testHistory(searcher, newFakeStore(), 10)

	hits, err := h.Run(context.Background(), HistoryParams{Term: "1234567"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Len(t, searcher.queries, 2, "an empty page ends the walk early")
}

func TestHistoryHonorsPageCap(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{pages: []ports.SearchPage{
		{Hits: []domain.Publication{historyHit("p1")}, TotalPages: 50, CurrentPage: 1},
	}}
	h := testHistory(searcher, newFakeStore(), 2)

	hits, err := h.Run(context.Background(), HistoryParams{Term: "1234567"})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Len(t, searcher.queries, 2, "never pages past the configured cap")
}

func TestHistorySavesHitsAgainstCase(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{pages: []ports.SearchPage{
		{Hits: []domain.Publication{historyHit("p1"), historyHit("p1"), historyHit("p2")}, TotalPages: 1, CurrentPage: 1},
	}}
	store := newFakeStore()
	h := testHistory(searcher, store, 5)

	hits, err := h.Run(context.Background(), HistoryParams{
		Term:   "1234567",
		Kind:   domain.KindCaseNumber,
		OrgID:  testOrgID,
		CasoID: "caso-1",
		Save:   true,
	})
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	assert.Equal(t, 2, store.count(), "the repeated hit deduplicates on save")
	row := store.rows["p1|caso-1"]
	assert.Equal(t, "1234567", row.Term)
	assert.Equal(t, 1.0, row.Score)
	assert.Equal(t, domain.KindCaseNumber, row.MatchKind)
}

func TestHistoryDefaultsKindToCaseNumber(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{pages: []ports.SearchPage{
		{Hits: []domain.Publication{historyHit("p1")}, TotalPages: 1, CurrentPage: 1},
	}}
	store := newFakeStore()
	h := testHistory(searcher, store, 5)

	_, err := h.Run(context.Background(), HistoryParams{
		Term: "1234567", OrgID: testOrgID, CasoID: "caso-1", Save: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindCaseNumber, store.rows["p1|caso-1"].MatchKind)
}
