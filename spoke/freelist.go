package spoke

import "container/heap"

// freeList keeps reclaimed slot indices and always hands out the lowest one first.
type freeList struct {
	indices slotHeap
}

func (f *freeList) Push(index int32) {
	heap.Push(&f.indices, index)
}

func (f *freeList) Pop() (int32, bool) {
	if len(f.indices) == 0 {
		return 0, false
	}

	return heap.Pop(&f.indices).(int32), true
}

func (f *freeList) Len() int {
	return len(f.indices)
}

type slotHeap []int32

func (h slotHeap) Len() int           { return len(h) }
func (h slotHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *slotHeap) Push(x any) {
	*h = append(*h, x.(int32))
}

func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	value := old[n-1]
	*h = old[:n-1]
	return value
}
