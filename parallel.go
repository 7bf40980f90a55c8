// parallel.go --  This file is part of goPCM project.
// Mirzaeva Irina, 2023
//
//	goPCM is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package gopcm

import (
	"runtime"
	"sync"
)

// Loops shorter than this run on the calling goroutine.
const minParallelChunk = 512

// parallelFor splits [0,n) into contiguous chunks, one per available thread,
// and calls fn on each chunk concurrently. Chunks never overlap, so fn may
// write to index-disjoint slices without locking.
func parallelFor(n int, fn func(start, end int)) {
	maxGoroutines := runtime.GOMAXPROCS(-1)
	if maxGoroutines > n/minParallelChunk {
		maxGoroutines = n / minParallelChunk
	}
	if maxGoroutines <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + maxGoroutines - 1) / maxGoroutines
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
