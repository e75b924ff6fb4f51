// Package main - test_runner.go
// Executable to run the cold start acceptance test.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dvaldano/heatworks/server/test"
)

func main() {
	ticks := flag.Int("ticks", 40, "Simulation ticks to run after bring-up")
	flag.Parse()

	fmt.Println("HEATWORKS - ACCEPTANCE TEST SUITE")
	fmt.Println("================================================")

	coldStart := test.NewColdStartTest()
	coldStart.RunTest(*ticks)

	results := coldStart.GetResults()
	passed := 0
	failed := 0

	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n============================================================")
	fmt.Println("TEST SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		fmt.Println("\nPlant failed acceptance, see scenarios above")
		os.Exit(1)
	}
	fmt.Println("\nPlant ready for deployment")
	os.Exit(0)
}
