package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"web/spidermap/cluster"
	"web/spidermap/geo"
	"web/spidermap/provider"
	"web/spidermap/server"
	"web/spidermap/snapshot"
)

var (
	configPath string
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "spidermap",
	Short: "Map marker clustering with spider expansion",
	Long: `A map component server that clusters markers by viewport, explodes
clusters into circular or spiral spider layouts, and bridges host map
events over a websocket.

Examples:
  spidermap serve --config config.yaml     # Run the HTTP/websocket server
  spidermap generate --count 10000         # Generate a test marker snapshot`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the clustering and spider expansion server",
	RunE:  runServe,
}

var (
	genCount int
	genSeed  int64
	genDir   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a snapshot of random test markers",
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "override the configured port")

	generateCmd.Flags().IntVarP(&genCount, "count", "n", 10000, "number of markers to generate")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 42, "random seed")
	generateCmd.Flags().StringVarP(&genDir, "dir", "d", "data/layers", "snapshot output directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	if port != 0 {
		cfg.Port = port
	}

	if err := os.MkdirAll(cfg.SnapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %v", err)
	}

	s, err := server.New(cfg)
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting server on :%d...\n", cfg.Port)
		if err := s.Run(); err != nil {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-quit
	fmt.Println("\nShutting down server...")

	// Save the layer before shutting down so a restart can pick it up.
	records := snapshot.RecordsFromMarkers(s.Layer().Markers())
	if len(records) > 0 {
		savePath := snapshot.GenerateFilename(cfg.SnapshotDir, len(records))
		fmt.Printf("Saving layer to %s...\n", savePath)
		saveStart := time.Now()
		if err := snapshot.SaveCompressed(savePath, records); err != nil {
			fmt.Printf("Failed to save layer on shutdown: %v\n", err)
		} else {
			fmt.Printf("Layer saved successfully in %v\n", time.Since(saveStart))
		}
	}

	fmt.Println("Server stopped")
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(genDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	// Continental US bounds, matching the server's default view.
	bounds := geo.Bounds{MinLat: 25.0, MinLng: -125.0, MaxLat: 49.0, MaxLng: -67.0}

	fmt.Printf("Generating %d markers...\n", genCount)
	binding := provider.ForKind(provider.KindStreetMap)
	markers := cluster.GenerateTestMarkers(binding, genCount, bounds, genSeed)

	savePath := snapshot.GenerateFilename(genDir, genCount)
	fmt.Printf("Saving snapshot to %s...\n", savePath)
	saveStart := time.Now()
	if err := snapshot.SaveCompressed(savePath, snapshot.RecordsFromMarkers(markers)); err != nil {
		return fmt.Errorf("failed to save snapshot: %v", err)
	}

	if fileInfo, err := os.Stat(savePath); err == nil {
		fmt.Printf("Snapshot saved in %v (file size: %d bytes)\n", time.Since(saveStart), fileInfo.Size())
	} else {
		fmt.Printf("Snapshot saved in %v\n", time.Since(saveStart))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
