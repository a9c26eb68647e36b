package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/eugenenazirov/burnvault/internal/logging"
	"github.com/eugenenazirov/burnvault/internal/optimizer"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "burnplan:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	app := kingpin.New("burnplan", "Plans burn groups for a media item file without running the server")
	app.Writer(out)
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").Default("warn").String()

	var opts planOptions
	planCmd := app.Command("plan", "Select the best burn group per category")
	planCmd.Flag("items", "YAML or JSON file with media items").Required().ExistingFileVar(&opts.itemsFile)
	planCmd.Flag("capacity", "Disc capacity in GB for every category").Default("-1").Float64Var(&opts.capacityGB)
	planCmd.Flag("category-capacity", "Capacity override as category=GB (repeatable)").StringsVar(&opts.categoryCapacities)
	planCmd.Flag("scale", "Quantization units per GB").Default(fmt.Sprint(optimizer.DefaultScale)).IntVar(&opts.scale)
	planCmd.Flag("category", "Category to plan (repeatable, default all)").StringsVar(&opts.categories)

	sampleCmd := app.Command("sample", "Print the sample library as YAML")

	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	switch command {
	case planCmd.FullCommand():
		logger, err := logging.New(*logLevel)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() {
			_ = logger.Sync()
		}()
		return runPlan(ctx, out, logger, opts)
	case sampleCmd.FullCommand():
		return runSample(out)
	}
	return nil
}
