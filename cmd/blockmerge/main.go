// Command-line interface to the block compressor.  Reads an uncompressed grid of
// labeled cells and writes it as a smaller set of same-domain blocks.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/janelia-flyem/blockmerge/archive"
	"github.com/janelia-flyem/blockmerge/compressors"
	"github.com/janelia-flyem/blockmerge/dvid"
	"github.com/janelia-flyem/blockmerge/server"
	"github.com/janelia-flyem/blockmerge/storage"
	"github.com/janelia-flyem/blockmerge/verify"
)

// Version of the blockmerge command.
const Version = "0.4.0"

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to a TOML or YAML configuration file.
	configFile = flag.String("config", "", "")

	// Profile CPU usage using standard gotest system.
	cpuprofile = flag.String("cpuprofile", "", "")

	// Settings that override the configuration file when given.
	useCPU      = flag.Int("numcpu", 0, "")
	threshold   = flag.Int("threshold", 0, "")
	expander    = flag.String("expander", "", "")
	format      = flag.String("format", "", "")
	compression = flag.String("compression", "", "")
	storePath   = flag.String("store", "", "")
	check       = flag.Bool("check", false, "")

	// Region position for dump.
	dumpAt = flag.String("at", "", "")
)

const helpMessage = `
blockmerge compresses a grid of domain-labeled cells into larger same-domain blocks

Usage: blockmerge [options] <command>

      -config      =string   TOML or YAML configuration file.
      -numcpu      =number   Number of region workers (default: all logical CPUs).
      -threshold   =number   Blocks a region must keep after collapse to be expanded.
      -expander    =string   %s
      -format      =string   Output format: csv or archive.
      -compression =string   Archive and store compression: none, snappy, lz4, zstd.
      -store       =string   Badger directory that also receives compressed regions.
      -check       (flag)    Validate every region after compression.
      -at          =string   Region position "x,y,z" to dump instead of the whole store.
      -cpuprofile  =string   Write CPU profile to this file.
      -verbose     (flag)    Run in verbose mode.
  -h, -help        (flag)    Show help message

Commands:

	about
	help
	compress [input [output]]          Input and output default to stdin and stdout.
	verify   <uncompressed> <compressed>  The compressed grid may be text or an archive.
	unpack   [archive [output]]        Convert an archive to comma-separated text.
	dump     <store> [output]          Write the regions of a store as text.
`

var usage = func() {
	fmt.Printf(helpMessage, strings.Join(compressors.Names, ", "))
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *runVerbose {
		dvid.Verbose = true
		dvid.SetLogMode(dvid.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to create CPU profile: %v\n", err)
			os.Exit(1)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	config.Logging.SetLogger()
	defer dvid.Shutdown()
	if loc := config.Location(); loc != "" {
		dvid.Infof("Using configuration %s\n", loc)
	}

	dvid.NumCPU = config.Compress.NumCPU
	runtime.GOMAXPROCS(dvid.Workers())

	// Capture ctrl+c and other interrupts so slices in progress stop cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := DoCommand(ctx, config, flag.Args()); err != nil {
		dvid.Errorf("%s: %v\n", flag.Args()[0], err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		dvid.Shutdown()
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

// loadConfig returns the configuration file settings with any flags given on the
// command line taking precedence.
func loadConfig() (server.Config, error) {
	config := server.DefaultConfig()
	if *configFile != "" {
		var err error
		if config, err = server.LoadConfig(*configFile); err != nil {
			return config, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "numcpu":
			config.Compress.NumCPU = *useCPU
		case "threshold":
			config.Compress.Threshold = *threshold
		case "expander":
			config.Compress.Expander = *expander
		case "check":
			config.Compress.Check = *check
		case "format":
			config.Output.Format = *format
		case "compression":
			config.Output.Compression = *compression
		case "store":
			config.Output.Store = *storePath
		}
	})
	return config, config.Validate()
}

// DoCommand runs one command.
func DoCommand(ctx context.Context, config server.Config, args []string) error {
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "about":
		fmt.Printf("blockmerge %s\n", Version)
		fmt.Printf("  archive format   %s\n", archive.Version)
		fmt.Printf("  workers          %d\n", dvid.Workers())
		fmt.Printf("  compressors      %s\n", strings.Join(compressors.Names, ", "))
		fmt.Printf("  go               %s\n", runtime.Version())
		return nil

	case "compress":
		in, out, closeFn, err := openInOut(args, 2)
		if err != nil {
			return err
		}
		defer closeFn()
		s := server.NewSession(config)
		if err := s.Compress(ctx, in, out); err != nil {
			return err
		}
		return out.Flush()

	case "verify":
		if len(args) != 2 {
			return fmt.Errorf("verify needs the uncompressed and compressed file names")
		}
		unit, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer unit.Close()
		compressed, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer compressed.Close()
		cr := bufio.NewReader(compressed)
		compare := verify.CompareCSV
		if archive.Detect(cr) {
			compare = verify.CompareArchive
		}
		result, err := compare(bufio.NewReader(unit), cr)
		if err != nil {
			return err
		}
		fmt.Printf("Equivalent: %s\n", result)
		return nil

	case "unpack":
		in, out, closeFn, err := openInOut(args, 2)
		if err != nil {
			return err
		}
		defer closeFn()
		if err := server.NewSession(config).Unpack(in, out); err != nil {
			return err
		}
		return out.Flush()

	case "dump":
		if len(args) < 1 {
			return fmt.Errorf("dump needs a store directory")
		}
		compress, checksum, err := config.Serialization()
		if err != nil {
			return err
		}
		store, err := storage.Open(args[0], compress, checksum)
		if err != nil {
			return err
		}
		defer store.Close()
		_, out, closeFn, err := openInOut(append([]string{"-"}, args[1:]...), 2)
		if err != nil {
			return err
		}
		defer closeFn()
		var at []dvid.Point3d
		if *dumpAt != "" {
			pos, err := dvid.StringToPoint3d(*dumpAt, ",")
			if err != nil {
				return err
			}
			at = append(at, pos)
		}
		if err := server.NewSession(config).Dump(store, out, at...); err != nil {
			return err
		}
		return out.Flush()

	default:
		return fmt.Errorf("unknown command %q, try 'blockmerge help'", cmd)
	}
}

// openInOut opens the optional input and output file arguments, where a missing
// argument or "-" means stdin or stdout.
func openInOut(args []string, max int) (io.Reader, *bufio.Writer, func(), error) {
	if len(args) > max {
		return nil, nil, nil, fmt.Errorf("too many arguments: %v", args)
	}
	var closers []io.Closer
	closeFn := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	var in io.Reader = os.Stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, f)
		in = f
	}
	var out io.Writer = os.Stdout
	if len(args) > 1 && args[1] != "-" {
		f, err := os.Create(args[1])
		if err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		closers = append(closers, f)
		out = f
	}
	return bufio.NewReader(in), bufio.NewWriter(out), closeFn, nil
}
