// Command filehasher splits an input file into fixed-size blocks, computes a
// digest per block on a parallel pipeline, and writes "<index>: <digest>"
// records to a file or stdout.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ygrebnov/filehasher"
	"github.com/ygrebnov/filehasher/metrics"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		if errors.Is(err, filehasher.ErrOptions) {
			fmt.Printf("Try: %s --help\n", cmd.Name())
		}
		os.Exit(-1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		infile    string
		outfile   string
		blockSize string
		workers   int
		ordered   bool
		mapping   bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "filehasher [flags] [PATH]",
		Short: "Compute per-block digests of a file",
		Long: "Splits the input file in blocks with the specified size, calculates their\n" +
			"hashes on a parallel pipeline and writes the generated chain of hashes to\n" +
			"the specified output file or stdout.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if infile == "" && len(args) == 1 {
				infile = args[0]
			}
			bs, err := filehasher.ParseSize(blockSize)
			if err != nil {
				return err
			}
			opts := filehasher.Options{
				InputFile:  infile,
				OutputFile: outfile,
				BlockSize:  bs,
				Workers:    workers,
				Sorted:     ordered,
				Mapping:    mapping,
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return run(cmd, opts, verbose)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&infile, "infile", "i", "", "path to the file to be processed")
	flags.StringVarP(&outfile, "outfile", "o", "", "path to the file to write results (stdout if not specified)")
	flags.IntVarP(&workers, "workers", "w", runtime.NumCPU(), "number of hash workers (0 forces synchronous mode)")
	flags.StringVarP(&blockSize, "blocksize", "b", "1M", "size of block; scale suffixes B, K, M and G are allowed (example: 128K)")
	flags.BoolVar(&ordered, "ordered", false, "order results by block index (restricted to 100000 blocks; unordered output is faster and uses less memory)")
	flags.BoolVar(&mapping, "mapping", false, "read via mmap instead of streaming; does not use physical RAM to store blocks")
	flags.BoolVar(&verbose, "verbose", false, "debug logging and run counters on stderr")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", filehasher.ErrOptions, err)
	})

	return cmd
}

func run(cmd *cobra.Command, opts filehasher.Options, verbose bool) error {
	out := io.Writer(os.Stdout)
	if opts.OutputFile != "" {
		f, err := os.Create(opts.OutputFile)
		if err != nil {
			return fmt.Errorf("failed to open output file [%s]: %w", opts.OutputFile, err)
		}
		defer f.Close()
		out = f
	}

	var ropts []filehasher.RunOption
	var counters *metrics.Basic
	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		defer func() { _ = logger.Sync() }()
		counters = metrics.NewBasic()
		ropts = append(ropts, filehasher.WithLogger(logger), filehasher.WithMetrics(counters))
	}

	var sink filehasher.ResultFunc
	var collected *filehasher.OrderedResults
	if opts.Sorted {
		collected = filehasher.NewOrderedResults()
		sink = collected.Add
	} else {
		sink = filehasher.UnorderedWriter(out)
	}

	fi, err := os.Stat(opts.InputFile)
	if err != nil {
		return fmt.Errorf("%w: failed to read metadata of file [%s]: %v", filehasher.ErrOptions, opts.InputFile, err)
	}
	plan, err := filehasher.PlanFor(opts, fi.Size())
	if err != nil {
		return err
	}
	fmt.Printf("Running: queue [%d], workers [%d]...\n", plan.Queue, plan.Workers)

	start := time.Now()
	if err := filehasher.Run(cmd.Context(), opts, sink, ropts...); err != nil {
		return err
	}

	// ordered output is flushed once the pipeline has drained
	if collected != nil {
		if err := collected.Write(out); err != nil {
			return err
		}
	}

	method := "streaming"
	if opts.Mapping {
		method = "mapping"
	}
	fmt.Printf("Done [with %s] in %d\n", method, time.Since(start).Microseconds())

	if counters != nil {
		for name, value := range counters.Counters() {
			logger.Info("counter", zap.String("name", name), zap.Int64("value", value))
		}
	}
	return nil
}
