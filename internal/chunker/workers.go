package chunker

// FileWorkload is one file queued for a scan batch, described only by the
// size Allocate needs to estimate its potential chunk count.
type FileWorkload struct {
	SizeBytes int64
}

// Allocate distributes a global worker budget across files queued for one
// scan batch (spec.md §4.5 "Multi-file worker allocation"). Each file's
// potential is max(1, size/minChunkBytes); workers are handed out
// proportionally to potential, each file getting at least 1 while budget
// remains, capped by its own potential and by the remaining budget. Files
// that end up with 0 in this batch are meant to be retried in a later
// batch sized to fit the same budget.
func Allocate(files []FileWorkload, minChunkBytes int64, budget int) []int {
	n := len(files)
	alloc := make([]int, n)
	if n == 0 || budget <= 0 {
		return alloc
	}

	potential := make([]int, n)
	var totalPotential int64
	for i, f := range files {
		p := f.SizeBytes / minChunkBytes
		if p < 1 {
			p = 1
		}
		potential[i] = int(p)
		totalPotential += p
	}

	remaining := budget

	// First pass: give every file its proportional share (floored),
	// never below 0 and never above its own potential.
	for i := range files {
		if remaining <= 0 {
			break
		}
		share := int(int64(potential[i]) * int64(budget) / totalPotential)
		if share > potential[i] {
			share = potential[i]
		}
		if share > remaining {
			share = remaining
		}
		alloc[i] = share
		remaining -= share
	}

	// Second pass: every file still at 0 gets 1, if budget remains,
	// so no file is starved purely by rounding.
	for i := range files {
		if remaining <= 0 {
			break
		}
		if alloc[i] == 0 {
			alloc[i] = 1
			remaining--
		}
	}

	// Remainder distribution: round-robin the leftover budget onto files
	// that haven't hit their potential cap yet.
	for remaining > 0 {
		progressed := false
		for i := range files {
			if remaining <= 0 {
				break
			}
			if alloc[i] < potential[i] {
				alloc[i]++
				remaining--
				progressed = true
			}
		}
		if !progressed {
			break // every file is at its potential cap; leftover budget is unused this batch
		}
	}

	return alloc
}
