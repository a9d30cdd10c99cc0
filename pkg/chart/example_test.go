package chart_test

import (
	"fmt"

	"github.com/matzehuels/dopingplot/pkg/chart"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/dataset"
)

func ExampleDraw() {
	records, err := dataset.ReadFile("testdata/cyclist.json")
	if err != nil {
		panic(err)
	}

	cfg := chart.DefaultConfig()
	s := surface.NewSurface(cfg.Frame.Width, cfg.Frame.Height)
	res, err := chart.Draw(s, records, cfg, nil)
	if err != nil {
		panic(err)
	}

	stats := res.Layout(cfg).Stats
	fmt.Printf("%d marks, %d with allegations\n", len(res.Marks), stats.Doping)
	// Output: 7 marks, 5 with allegations
}
