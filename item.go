package volcanocache

/*
Item represents a single cache entry stored inside the Cache map.

STRUCTURE

dataset     -> The generated dataset for the entry's size key.
approxBytes -> Row count × per-row estimate. Used for Status reporting
               only; nothing is ever evicted on the basis of it.

An Item is written once, under the cache's exclusive lock, and read
concurrently afterwards. It has no expiration: entries live until Clear.
*/
type Item struct {
	dataset     *Dataset
	approxBytes int64
}

// DefaultRowSizeEstimate approximates one Point: two float64s, an int,
// three string headers and the shared vocabulary strings.
const DefaultRowSizeEstimate = 128

func newItem(ds *Dataset, rowBytes int) *Item {
	return &Item{
		dataset:     ds,
		approxBytes: int64(len(ds.Points)) * int64(rowBytes),
	}
}

/*
Valid reports whether the entry can be served for key.

An entry whose dataset is missing, sized for another key, or shorter
than its declared size is treated as corrupted: the cache discards it
and regenerates instead of returning it.
*/
func (i *Item) Valid(key int) bool {
	return i != nil && i.dataset.valid() && i.dataset.Size == key
}
