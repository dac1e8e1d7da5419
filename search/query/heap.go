package query

// scoreHeap is a min-heap of scored documents for container/heap. The root is
// the document evicted first: lowest score, then highest doc id.
type scoreHeap []*DocScore

func (h scoreHeap) Len() int { return len(h) }

func (h scoreHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocId > h[j].DocId
}

func (h scoreHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *scoreHeap) Push(item any) {
	*h = append(*h, item.(*DocScore))
}

func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
