// Profiling:
// go build ./cmd/pecsprofile
// go tool pprof -http=":8000" -nodefraction=0.001 ./pecsprofile mem.pprof

package main

import (
	"github.com/pkg/profile"

	"github.com/veltrix-labs/pecs"
)

type position struct {
	X int64
	Y int64
}

type velocity struct {
	X int64
	Y int64
}

func main() {
	rounds := 50
	iters := 10000
	numEntities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, numEntities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for r := 0; r < rounds; r++ {
		w := pecs.NewWorld(pecs.WorldConfig{})
		pecs.MustRegisterComponent[position](w)
		pecs.MustRegisterComponent[velocity](w)

		for i := 0; i < iters; i++ {
			handles := make([]pecs.EntityHandle, 0, numEntities)
			for n := 0; n < numEntities; n++ {
				h := pecs.SpawnBundle2(w, position{}, velocity{X: 1, Y: 1})
				handles = append(handles, h)
			}

			q, err := pecs.NewQuery2[position, velocity](w)
			if err != nil {
				panic(err)
			}
			for q.Next() {
				pos, vel := q.Get()
				pos.X += vel.X
				pos.Y += vel.Y
			}

			for _, h := range handles {
				w.Despawn(h)
			}
		}
	}
}
