package scoreindex

import (
	"fmt"
	"math/rand/v2"
	"testing"
)

func seeded(b *testing.B, n int) (*Index[float64], []string) {
	b.Helper()
	idx := New[float64](WithRandSeed(3, 5))
	rng := rand.New(rand.NewPCG(9, 13))
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("member-%d", i)
		if _, err := idx.Add(ids[i], rng.Float64()*1000); err != nil {
			b.Fatalf("seed add: %v", err)
		}
	}
	return idx, ids
}

func BenchmarkIndex_Add(b *testing.B) {
	idx, ids := seeded(b, 100_000)
	rng := rand.New(rand.NewPCG(1, 1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Add(ids[i%len(ids)], rng.Float64()*1000)
	}
}

func BenchmarkIndex_IncrementBy(b *testing.B) {
	idx, ids := seeded(b, 100_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.IncrementBy(ids[i%len(ids)], 1)
	}
}

func BenchmarkIndex_Rank(b *testing.B) {
	idx, ids := seeded(b, 100_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Rank(ids[i%len(ids)])
	}
}

func BenchmarkIndex_Page(b *testing.B) {
	idx, _ := seeded(b, 100_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Page(i%2000, 50)
	}
}

func BenchmarkIndex_ParallelMixed(b *testing.B) {
	idx, ids := seeded(b, 100_000)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			id := ids[i%len(ids)]
			if i%10 == 0 {
				_, _ = idx.IncrementBy(id, 1)
			} else {
				idx.Rank(id)
			}
			i++
		}
	})
}
