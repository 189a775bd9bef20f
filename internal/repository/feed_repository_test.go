package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(postID, authorID string, at time.Time) FeedRow {
	return FeedRow{PostID: postID, AuthorID: authorID, CreatedAt: at}
}

func TestPaginateMergedOrdersByRecency(t *testing.T) {
	t1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	// two partitions, each locally ordered: A=[A@t3, A@t1], B=[B@t2]
	rows := []FeedRow{
		row("pa3", "A", t3),
		row("pa1", "A", t1),
		row("pb2", "B", t2),
	}

	page := paginateMerged(rows, 0, 2)
	require.Len(t, page, 2)
	assert.Equal(t, "pa3", page[0].PostID)
	assert.Equal(t, "pb2", page[1].PostID)

	page = paginateMerged(rows, 1, 2)
	require.Len(t, page, 1)
	assert.Equal(t, "pa1", page[0].PostID)
}

func TestPaginateMergedPastTheEnd(t *testing.T) {
	rows := []FeedRow{row("p1", "A", time.Now())}
	page := paginateMerged(rows, 5, 20)
	require.NotNil(t, page)
	assert.Empty(t, page)
}

func TestPaginateMergedHugePageDoesNotPanic(t *testing.T) {
	rows := []FeedRow{row("p1", "A", time.Now())}
	// page*size overflows int here; the result must be empty, not a panic
	page := paginateMerged(rows, 461168601842738791, 20)
	require.NotNil(t, page)
	assert.Empty(t, page)
}

func TestPaginateMergedTieBreakIsStable(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := []FeedRow{
		row("p1", "A", at),
		row("p9", "B", at),
		row("p5", "C", at),
	}
	first := paginateMerged(append([]FeedRow(nil), rows...), 0, 3)
	second := paginateMerged(append([]FeedRow(nil), rows...), 0, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "p9", first[0].PostID)
	assert.Equal(t, "p1", first[2].PostID)
}

func TestPaginateMergedPartialLastPage(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := make([]FeedRow, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, row(string(rune('a'+i)), "A", base.Add(time.Duration(i)*time.Second)))
	}
	page := paginateMerged(rows, 2, 2)
	require.Len(t, page, 1)
}
