package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"web/spidermap/cluster"
	"web/spidermap/geo"
	"web/spidermap/provider"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to file")
	heapprofile = flag.String("heapprofile", "", "write heap profile to file")
	numMarkers  = flag.Int("markers", 100000, "number of markers to generate")
	zoomLevel   = flag.Int("zoom", 8, "zoom level to profile")
	testall     = flag.Bool("testall", false, "test all configurations")
)

// Continental US, the same region the generate command uses.
var usBounds = geo.Bounds{MinLat: 25.0, MinLng: -125.0, MaxLat: 49.0, MaxLng: -65.0}

func newTestLayer(n int) *cluster.Layer {
	binding := provider.ForKind(provider.KindStreetMap)
	layer := cluster.NewLayer(binding, cluster.Options{
		MinPoints: 3,
		Radius:    40,
		Extent:    512,
		NodeSize:  64,
		Log:       false,
	})
	layer.AddMarkers(cluster.GenerateTestMarkers(binding, n, usBounds, 42))
	return layer
}

func runSingleProfile(numMarkers, zoomLevel int) {
	fmt.Printf("Profiling with %d markers at zoom level %d\n", numMarkers, zoomLevel)

	layer := newTestLayer(numMarkers)

	// Measure memory before clustering
	var memStatsBefore, memStatsAfter runtime.MemStats
	runtime.ReadMemStats(&memStatsBefore)

	// Time the clustering
	start := time.Now()
	clusters := layer.GetClusters(usBounds, zoomLevel)
	duration := time.Since(start)

	// Measure memory after clustering
	runtime.ReadMemStats(&memStatsAfter)

	// Calculate memory usage
	allocMB := float64(memStatsAfter.TotalAlloc-memStatsBefore.TotalAlloc) / 1024 / 1024

	fmt.Printf("Clustering completed in %v (%d clusters)\n", duration, len(clusters))
	fmt.Printf("Memory allocated: %.2f MB\n", allocMB)
	fmt.Printf("Memory usage: %.2f MB\n", float64(memStatsAfter.Alloc)/1024/1024)
}

func runProfileBattery() {
	markerCounts := []int{1000, 10000, 50000, 100000}
	zoomLevels := []int{2, 5, 8, 12, 15}

	fmt.Println("Running comprehensive profile battery...")
	fmt.Println("=======================================")

	// Table header
	fmt.Printf("%-10s | %-10s | %-12s | %-15s | %-10s | %-10s\n",
		"Markers", "Zoom", "Clusters", "Duration", "Memory (MB)", "GC Runs")
	fmt.Printf("%s\n", "------------------------------------------------------------------------")

	for _, markers := range markerCounts {
		layer := newTestLayer(markers)

		for _, zoom := range zoomLevels {
			// Collect GC stats before
			var memStatsBefore, memStatsAfter runtime.MemStats
			runtime.ReadMemStats(&memStatsBefore)

			// Time the execution
			start := time.Now()
			clusters := layer.GetClusters(usBounds, zoom)
			duration := time.Since(start)

			// Collect stats after
			runtime.ReadMemStats(&memStatsAfter)
			memMB := float64(memStatsAfter.TotalAlloc-memStatsBefore.TotalAlloc) / 1024 / 1024
			gcRuns := memStatsAfter.NumGC - memStatsBefore.NumGC

			// Print result row
			fmt.Printf("%-10d | %-10d | %-12d | %-15s | %-10.2f | %-10d\n",
				markers, zoom, len(clusters), duration, memMB, gcRuns)
		}

		// Add separator between marker counts
		fmt.Printf("%s\n", "------------------------------------------------------------------------")
	}
}

func main() {
	flag.Parse()

	// Set up CPU profiling if requested
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			return
		}
		defer f.Close()

		fmt.Println("Starting CPU profiling...")
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	// Run tests
	if *testall {
		runProfileBattery()
	} else {
		runSingleProfile(*numMarkers, *zoomLevel)
	}

	// Write memory profile if requested
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create memory profile: %v\n", err)
			return
		}
		defer f.Close()
		runtime.GC() // Get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write memory profile: %v\n", err)
		}
	}

	// Write heap profile if requested
	if *heapprofile != "" {
		f, err := os.Create(*heapprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create heap profile: %v\n", err)
			return
		}
		defer f.Close()

		memProfile := pprof.Lookup("heap")
		if memProfile == nil {
			fmt.Fprintf(os.Stderr, "Could not find heap profile\n")
			return
		}

		if err := memProfile.WriteTo(f, 0); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write heap profile: %v\n", err)
		}
	}
}
