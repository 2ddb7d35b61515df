// SPDX-License-Identifier: MIT

package forge_test

import (
	"context"
	"fmt"
	"time"

	"github.com/katalvlaran/tabularforge/dataset"
	"github.com/katalvlaran/tabularforge/forge"
	"github.com/katalvlaran/tabularforge/sampler"
)

// ExampleForge fits a small table and draws a reproducible synthetic sample.
func ExampleForge() {
	const n = 200
	age := make([]any, n)
	plan := make([]any, n)
	joined := make([]any, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		age[i] = float64(20 + (i*17)%50)
		plan[i] = []string{"free", "pro", "team"}[i%3]
		joined[i] = start.AddDate(0, 0, i)
		if i%10 == 0 {
			plan[i] = nil
		}
	}
	ds, err := dataset.New(
		dataset.Column{Name: "age", Values: age},
		dataset.Column{Name: "plan", Values: plan},
		dataset.Column{Name: "joined", Values: joined},
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	f := forge.New()
	if err = f.Fit(context.Background(), ds); err != nil {
		fmt.Println(err)
		return
	}
	m, _ := f.Model()
	for _, c := range m.Fingerprint().Columns {
		fmt.Printf("%s: %s\n", c.Name, c.Type)
	}

	a, _ := f.Generate(context.Background(), 1000, sampler.WithSeed(42))
	b, _ := f.Generate(context.Background(), 1000, sampler.WithSeed(42))
	fmt.Println(a.NumRows(), a.Names())
	fmt.Println("reproducible:", fmt.Sprint(a.Row(999)) == fmt.Sprint(b.Row(999)))

	// Output:
	// age: continuous
	// plan: categorical
	// joined: datetime
	// 1000 [age plan joined]
	// reproducible: true
}
