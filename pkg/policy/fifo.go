package policy

func init() {
	Register(Policy{
		Name:        "fifo",
		Description: "insertion-order eviction; hits do not change eviction order",
		New:         newFIFO,
	})
}

// fifo evicts the oldest inserted key. keys is a ring of resident keys in
// insertion order starting at head.
type fifo struct {
	keys  []string
	index map[string]struct{}
	head  int
	n     int
}

func newFIFO(capacity int) (Cache, error) {
	return &fifo{
		keys:  make([]string, capacity),
		index: make(map[string]struct{}, capacity),
	}, nil
}

func (f *fifo) Lookup(key string) bool {
	_, ok := f.index[key]
	return ok
}

func (f *fifo) Insert(key string) {
	if _, ok := f.index[key]; ok {
		return
	}
	if f.n == len(f.keys) {
		delete(f.index, f.keys[f.head])
		f.keys[f.head] = key
		f.head = (f.head + 1) % len(f.keys)
	} else {
		f.keys[(f.head+f.n)%len(f.keys)] = key
		f.n++
	}
	f.index[key] = struct{}{}
}
